package service

import (
	"context"
	"errors"
	"log/slog"

	"dance-storefront/internal/model"
	"dance-storefront/internal/util"
)

type WatchState string

const (
	WatchLoading       WatchState = "loading"
	WatchNotFound      WatchState = "not_found"
	WatchLocked        WatchState = "locked"
	WatchUnlocked      WatchState = "unlocked"
	WatchRedirectLogin WatchState = "redirect_login"
)

// WatchResult is the terminal outcome of one watch page view. Outside the
// unlocked state Class carries no playable video reference.
type WatchResult struct {
	State       WatchState
	Class       model.Class
	Description string
	VideoID     string
	EmbedURL    string
	RedirectURL string
}

type classFinder interface {
	FindClassBySlug(ctx context.Context, slug string) (*model.Class, error)
}

type WatchService struct {
	classes classFinder
}

func NewWatchService(classes classFinder) *WatchService {
	return &WatchService{classes: classes}
}

func (s *WatchService) Evaluate(ctx context.Context, session *model.Session, slug string) WatchResult {
	result := WatchResult{State: WatchLoading}

	if !session.Authenticated() {
		result.State = WatchRedirectLogin
		result.RedirectURL = util.LoginRedirect("/watch/" + slug)
		return result
	}

	class, err := s.classes.FindClassBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, model.ErrClassNotFound) {
			slog.WarnContext(ctx, "watch lookup failed", "slug", slug, "error", err)
		}
		result.State = WatchNotFound
		return result
	}

	result.Description = util.ExtractTextFromBlocks(class.Description)

	if !HasPurchased(session.Purchases(), class.Ref()) {
		result.State = WatchLocked
		result.Class = class.WithoutVideo()
		return result
	}

	result.State = WatchUnlocked
	result.Class = *class
	if id, ok := util.ResolveVideoID(class.ExternalVideoRef); ok {
		result.VideoID = id
	} else if id, ok := util.ResolveVideoID(class.Link); ok {
		result.VideoID = id
	}
	result.EmbedURL = util.EmbedURL(result.VideoID)

	return result
}
