package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

// Raw payload shapes. Field names follow the backend's content types; nothing
// outside this file reads them.

type listEnvelope struct {
	Data *[]json.RawMessage `json:"data"`
}

type rawMedia struct {
	URL string `json:"url"`
}

type rawClass struct {
	ID            int             `json:"id"`
	DocumentID    string          `json:"documentId"`
	Title         string          `json:"titulo"`
	Slug          string          `json:"slug"`
	Price         json.RawMessage `json:"precio"`
	Level         string          `json:"nivel"`
	Duration      json.RawMessage `json:"duracion"`
	Description   json.RawMessage `json:"descripcion"`
	Thumbnail     *rawMedia       `json:"thumbnail"`
	PreviewVideo  string          `json:"id_video_preview"`
	ExternalVideo string          `json:"id_video_externo"`
	Link          string          `json:"link"`
	CreatedAt     string          `json:"createdAt"`
}

type rawUser struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Confirmed bool       `json:"confirmed"`
	Blocked   bool       `json:"blocked"`
	CreatedAt string     `json:"createdAt"`
	Purchased []rawClass `json:"purchased_clases"`
}

type rawAuth struct {
	JWT   string   `json:"jwt"`
	User  *rawUser `json:"user"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type rawPreference struct {
	SessionID string `json:"sessionId"`
}

func malformed(format string, args ...any) error {
	return apierror.Wrap(apierror.KindMalformed, "MALFORMED_RESPONSE", "backend returned unexpected data", http.StatusBadGateway,
		fmt.Errorf("%w: %s", model.ErrMalformedResponse, fmt.Sprintf(format, args...)))
}

// ParseClassList converts a {data: [...]} wrapper into classes. A missing or
// non-array data field is malformed; an individual invalid entry is too.
func ParseClassList(raw []byte, mediaBase string) ([]model.Class, error) {
	var envelope listEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, malformed("decode list: %v", err)
	}
	if envelope.Data == nil {
		return nil, malformed("list response has no data array")
	}

	classes := make([]model.Class, 0, len(*envelope.Data))
	for i, item := range *envelope.Data {
		var rc rawClass
		if err := json.Unmarshal(item, &rc); err != nil {
			return nil, malformed("decode class %d: %v", i, err)
		}

		class, err := toClass(rc, mediaBase)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}

	return classes, nil
}

func toClass(rc rawClass, mediaBase string) (model.Class, error) {
	slug := strings.TrimSpace(rc.Slug)
	if rc.ID <= 0 {
		return model.Class{}, malformed("class without id")
	}
	if slug == "" {
		return model.Class{}, malformed("class %d without slug", rc.ID)
	}
	if strings.TrimSpace(rc.Title) == "" {
		return model.Class{}, malformed("class %q without title", slug)
	}

	price, err := parseNumber(rc.Price)
	if err != nil {
		return model.Class{}, malformed("class %q price: %v", slug, err)
	}

	class := model.Class{
		ID:               rc.ID,
		DocumentID:       strings.TrimSpace(rc.DocumentID),
		Title:            strings.TrimSpace(rc.Title),
		Slug:             slug,
		Price:            price,
		Level:            strings.TrimSpace(rc.Level),
		DurationMinutes:  parseMinutes(rc.Duration),
		Description:      parseBlocks(rc.Description),
		PreviewVideoRef:  strings.TrimSpace(rc.PreviewVideo),
		ExternalVideoRef: strings.TrimSpace(rc.ExternalVideo),
		Link:             strings.TrimSpace(rc.Link),
		CreatedAt:        parseTime(rc.CreatedAt),
	}
	if rc.Thumbnail != nil {
		class.ThumbnailURL = ResolveMediaURL(mediaBase, rc.Thumbnail.URL)
	}

	return class, nil
}

func toClassRef(rc rawClass, mediaBase string) (model.ClassRef, error) {
	ref := model.ClassRef{
		ID:               rc.ID,
		DocumentID:       strings.TrimSpace(rc.DocumentID),
		Slug:             strings.TrimSpace(rc.Slug),
		Title:            strings.TrimSpace(rc.Title),
		PreviewVideoRef:  strings.TrimSpace(rc.PreviewVideo),
		ExternalVideoRef: strings.TrimSpace(rc.ExternalVideo),
	}
	if ref.DocumentID == "" && ref.Slug == "" {
		return model.ClassRef{}, malformed("purchase reference %d has neither documentId nor slug", rc.ID)
	}
	if rc.Thumbnail != nil {
		ref.ThumbnailURL = ResolveMediaURL(mediaBase, rc.Thumbnail.URL)
	}
	return ref, nil
}

// ParseUser converts the /users/me payload (or the user part of an auth
// response) into a model.User.
func ParseUser(raw []byte, mediaBase string) (*model.User, error) {
	var ru rawUser
	if err := json.Unmarshal(raw, &ru); err != nil {
		return nil, malformed("decode user: %v", err)
	}
	return toUser(&ru, mediaBase)
}

func toUser(ru *rawUser, mediaBase string) (*model.User, error) {
	if ru == nil || ru.ID <= 0 {
		return nil, malformed("user without id")
	}
	if strings.TrimSpace(ru.Username) == "" {
		return nil, malformed("user %d without username", ru.ID)
	}

	user := &model.User{
		ID:               ru.ID,
		Username:         ru.Username,
		Email:            ru.Email,
		Confirmed:        ru.Confirmed,
		Blocked:          ru.Blocked,
		CreatedAt:        parseTime(ru.CreatedAt),
		PurchasedClasses: make([]model.ClassRef, 0, len(ru.Purchased)),
	}

	for _, rc := range ru.Purchased {
		ref, err := toClassRef(rc, mediaBase)
		if err != nil {
			return nil, err
		}
		user.PurchasedClasses = append(user.PurchasedClasses, ref)
	}

	return user, nil
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	Token string
	User  *model.User
}

func parseAuth(raw []byte, mediaBase string, fallback string) (AuthResult, error) {
	var ra rawAuth
	if err := json.Unmarshal(raw, &ra); err != nil {
		return AuthResult{}, malformed("decode auth response: %v", err)
	}

	if strings.TrimSpace(ra.JWT) == "" {
		message := fallback
		if ra.Error != nil && strings.TrimSpace(ra.Error.Message) != "" {
			message = ra.Error.Message
		}
		return AuthResult{}, apierror.Wrap(apierror.KindAuth, "AUTH_FAILED", message, http.StatusUnauthorized, model.ErrInvalidCredentials)
	}

	user, err := toUser(ra.User, mediaBase)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: ra.JWT, User: user}, nil
}

func parsePreference(raw []byte) (model.PaymentPreference, error) {
	var rp rawPreference
	if err := json.Unmarshal(raw, &rp); err != nil {
		return model.PaymentPreference{}, malformed("decode preference: %v", err)
	}
	if strings.TrimSpace(rp.SessionID) == "" {
		return model.PaymentPreference{}, apierror.Wrap(apierror.KindMalformed, "PREFERENCE_MISSING", "payment provider did not return a preference", http.StatusBadGateway, model.ErrPreferenceMissing)
	}
	return model.PaymentPreference{SessionID: strings.TrimSpace(rp.SessionID)}, nil
}

// ResolveMediaURL makes backend-relative upload paths absolute.
func ResolveMediaURL(base string, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(trimmed, "/")
}

func parseNumber(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("not a number: %s", trimmed)
	}

	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return 0, nil
	}
	return strconv.ParseFloat(text, 64)
}

// parseMinutes accepts 45, "45" or "45 min"; anything else is zero.
func parseMinutes(raw json.RawMessage) int {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return int(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0
	}

	digits := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsDigit(r) })
	if len(digits) == 0 {
		return 0
	}
	minutes, err := strconv.Atoi(digits[0])
	if err != nil {
		return 0
	}
	return minutes
}

func parseBlocks(raw json.RawMessage) []model.Block {
	if len(raw) == 0 {
		return nil
	}

	var blocks []model.Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	return blocks
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed
}
