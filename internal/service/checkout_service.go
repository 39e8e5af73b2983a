package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
	"dance-storefront/internal/util"
	"dance-storefront/pkg/apierror"
)

const preferenceFailedMessage = "No se pudo iniciar el pago. Intenta nuevamente."

type CheckoutState string

const (
	CheckoutRedirectLogin   CheckoutState = "redirect_login"
	CheckoutNotFound        CheckoutState = "not_found"
	CheckoutReady           CheckoutState = "ready"
	CheckoutPreferenceReady CheckoutState = "preference_ready"
	CheckoutFailed          CheckoutState = "failed"
)

type CheckoutView struct {
	State            CheckoutState
	Class            model.Class
	Thumbnail        string
	RedirectURL      string
	PublicKey        string
	PreferenceID     string
	Error            string
	AlreadyPurchased bool
}

type checkoutBackend interface {
	FindClassBySlug(ctx context.Context, slug string) (*model.Class, error)
	CreatePreference(ctx context.Context, token string, documentID string) (model.PaymentPreference, error)
}

type CheckoutService struct {
	backend   checkoutBackend
	bus       event.Bus
	publicKey string
}

func NewCheckoutService(b checkoutBackend, bus event.Bus, publicKey string) *CheckoutService {
	return &CheckoutService{backend: b, bus: bus, publicKey: publicKey}
}

// CheckoutPath is the checkout page URL for slug.
func CheckoutPath(slug string) string {
	return "/checkout?product=" + url.QueryEscape(slug)
}

// Prepare resolves the product summary shown before the user chooses to pay.
func (s *CheckoutService) Prepare(ctx context.Context, session *model.Session, slug string) CheckoutView {
	slug = strings.TrimSpace(slug)
	view := CheckoutView{PublicKey: s.publicKey}

	if !session.Authenticated() {
		view.State = CheckoutRedirectLogin
		view.RedirectURL = util.LoginRedirect(CheckoutPath(slug))
		return view
	}

	if slug == "" {
		view.State = CheckoutNotFound
		return view
	}

	class, err := s.backend.FindClassBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, model.ErrClassNotFound) {
			slog.WarnContext(ctx, "checkout product lookup failed", "slug", slug, "error", err)
		}
		view.State = CheckoutNotFound
		return view
	}

	view.State = CheckoutReady
	view.AlreadyPurchased = HasPurchased(session.Purchases(), class.Ref())
	view.Thumbnail = thumbnailFor(*class, view.AlreadyPurchased)
	view.Class = class.WithoutVideo()
	return view
}

// CreatePreference opens a payment intent for the product. The returned view
// is always renderable; err classifies the failure for JSON callers.
func (s *CheckoutService) CreatePreference(ctx context.Context, session *model.Session, slug string) (CheckoutView, error) {
	view := s.Prepare(ctx, session, slug)

	switch view.State {
	case CheckoutRedirectLogin:
		return view, apierror.Wrap(apierror.KindAuth, "UNAUTHORIZED", "Inicia sesión para comprar", http.StatusUnauthorized, model.ErrUnauthenticated)
	case CheckoutNotFound:
		return view, apierror.Wrap(apierror.KindNotFound, "NOT_FOUND", "Clase no encontrada", http.StatusNotFound, model.ErrClassNotFound)
	}

	if view.Class.DocumentID == "" {
		err := apierror.Wrap(apierror.KindMalformed, "MALFORMED_RESPONSE", "class has no document id", http.StatusBadGateway, model.ErrMalformedResponse)
		return s.failed(ctx, session, view, err)
	}

	pref, err := s.backend.CreatePreference(ctx, session.Token(), view.Class.DocumentID)
	if err != nil {
		return s.failed(ctx, session, view, err)
	}

	view.State = CheckoutPreferenceReady
	view.PreferenceID = pref.SessionID
	s.publish(ctx, session, event.TypePreferenceCreated, view.Class.Slug, "success", pref.SessionID)
	return view, nil
}

func (s *CheckoutService) failed(ctx context.Context, session *model.Session, view CheckoutView, err error) (CheckoutView, error) {
	slog.WarnContext(ctx, "payment preference failed", "slug", view.Class.Slug, "error", err)

	view.State = CheckoutFailed
	view.Error = preferenceFailedMessage
	s.publish(ctx, session, event.TypePreferenceFailed, view.Class.Slug, "failure", err.Error())
	return view, err
}

func (s *CheckoutService) publish(ctx context.Context, session *model.Session, kind event.Type, slug string, status string, detail string) {
	if s.bus == nil {
		return
	}

	payload := payloadFor(session, status)
	payload.Resource = "/clases/" + slug
	payload.Detail = detail
	payload.RequestID = backend.RequestIDFrom(ctx)
	s.bus.Publish(event.Event{Type: kind, Payload: payload})
}
