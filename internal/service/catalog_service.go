package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/model"
	"dance-storefront/internal/util"
)

const featuredCount = 3

type catalogBackend interface {
	FeaturedClasses(ctx context.Context, limit int) ([]model.Class, error)
	ListClasses(ctx context.Context, params backend.ListParams) ([]model.Class, error)
	FindClassBySlug(ctx context.Context, slug string) (*model.Class, error)
}

// ClassCard is a class prepared for listing: thumbnail resolved and no video refs.
type ClassCard struct {
	model.Class
	Thumbnail string `json:"thumbnail,omitempty"`
	Purchased bool   `json:"purchased"`
}

type CatalogPage struct {
	Classes []ClassCard
	Level   string
	Levels  []string
	// Unavailable is set when the backend could not be reached; Classes is empty.
	Unavailable bool
}

type ClassDetail struct {
	Class           model.Class
	DescriptionText string
	PreviewEmbedURL string
	Thumbnail       string
	Purchased       bool
}

type CatalogService struct {
	backend catalogBackend
}

func NewCatalogService(b catalogBackend) *CatalogService {
	return &CatalogService{backend: b}
}

// Featured returns the most recent classes for the home page. Failures yield
// an empty list.
func (s *CatalogService) Featured(ctx context.Context, session *model.Session) []ClassCard {
	classes, err := s.backend.FeaturedClasses(ctx, featuredCount)
	if err != nil {
		slog.WarnContext(ctx, "featured classes unavailable", "error", err)
		return []ClassCard{}
	}
	return cards(classes, session)
}

// List returns all classes, newest first, restricted to level unless level
// is empty, unknown or LevelAll.
func (s *CatalogService) List(ctx context.Context, session *model.Session, level string) CatalogPage {
	page := CatalogPage{Level: NormalizeLevel(level), Levels: model.Levels, Classes: []ClassCard{}}

	classes, err := s.backend.ListClasses(ctx, backend.ListParams{})
	if err != nil {
		slog.WarnContext(ctx, "catalog unavailable", "error", err)
		page.Unavailable = true
		return page
	}

	if page.Level != model.LevelAll {
		filtered := make([]model.Class, 0, len(classes))
		for _, class := range classes {
			if strings.EqualFold(strings.TrimSpace(class.Level), page.Level) {
				filtered = append(filtered, class)
			}
		}
		classes = filtered
	}

	page.Classes = cards(classes, session)
	return page
}

// Detail loads one class by slug. Any failure to load it is reported as
// model.ErrClassNotFound.
func (s *CatalogService) Detail(ctx context.Context, session *model.Session, slug string) (ClassDetail, error) {
	class, err := s.backend.FindClassBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, model.ErrClassNotFound) {
			slog.WarnContext(ctx, "class detail unavailable", "slug", slug, "error", err)
		}
		return ClassDetail{}, model.ErrClassNotFound
	}

	detail := ClassDetail{
		Class:           class.WithoutVideo(),
		DescriptionText: util.ExtractTextFromBlocks(class.Description),
		Purchased:       HasPurchased(session.Purchases(), class.Ref()),
	}
	detail.Thumbnail = thumbnailFor(*class, detail.Purchased)
	if id, ok := util.ResolveVideoID(class.PreviewVideoRef); ok {
		detail.PreviewEmbedURL = util.EmbedURL(id)
	}

	return detail, nil
}

// NormalizeLevel maps level onto one of model.Levels, case-insensitively.
func NormalizeLevel(level string) string {
	level = strings.TrimSpace(level)
	for _, known := range model.Levels {
		if strings.EqualFold(level, known) {
			return known
		}
	}
	return model.LevelAll
}

func cards(classes []model.Class, session *model.Session) []ClassCard {
	purchases := session.Purchases()
	out := make([]ClassCard, 0, len(classes))
	for _, class := range classes {
		purchased := HasPurchased(purchases, class.Ref())
		out = append(out, ClassCard{
			Class:     class.WithoutVideo(),
			Thumbnail: thumbnailFor(class, purchased),
			Purchased: purchased,
		})
	}
	return out
}

// thumbnailFor derives a card image. The full video's thumbnail embeds its id,
// so it is only used once the class is owned.
func thumbnailFor(class model.Class, purchased bool) string {
	if purchased {
		return util.FirstThumbnail(class.ThumbnailURL, class.ExternalVideoRef)
	}
	if class.ThumbnailURL != "" {
		return class.ThumbnailURL
	}
	return util.FirstThumbnail("", class.PreviewVideoRef)
}
