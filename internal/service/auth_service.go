package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

const minPasswordLength = 6

type authBackend interface {
	Login(ctx context.Context, identifier string, password string) (backend.AuthResult, error)
	Register(ctx context.Context, username string, email string, password string) (backend.AuthResult, error)
	Me(ctx context.Context, token string) (*model.User, error)
}

// AuthService builds per-request sessions. It holds no session state itself.
type AuthService struct {
	backend authBackend
	bus     event.Bus
	now     func() time.Time
}

func NewAuthService(b authBackend, bus event.Bus) *AuthService {
	return &AuthService{backend: b, bus: bus, now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, identifier string, password string) (*model.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalidInput("Ingresa tu usuario o email y tu contraseña")
	}

	result, err := s.backend.Login(ctx, identifier, password)
	if err != nil {
		s.publish(ctx, event.TypeSessionLogin, event.Payload{Username: identifier, Status: "failure", Detail: err.Error()})
		return nil, err
	}

	session, err := s.authenticated(result)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.TypeSessionLogin, payloadFor(session, "success"))
	return session, nil
}

func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "" || email == "" || password == "":
		return nil, invalidInput("Completa todos los campos")
	case !validEmail(email):
		return nil, invalidInput("El email no es válido")
	case len(password) < minPasswordLength:
		return nil, invalidInput(fmt.Sprintf("La contraseña debe tener al menos %d caracteres", minPasswordLength))
	}

	result, err := s.backend.Register(ctx, username, email, password)
	if err != nil {
		s.publish(ctx, event.TypeSessionRegister, event.Payload{Username: username, Status: "failure", Detail: err.Error()})
		return nil, err
	}

	session, err := s.authenticated(result)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.TypeSessionRegister, payloadFor(session, "success"))
	return session, nil
}

// Logout moves session to anonymous. The caller clears the token cookie.
func (s *AuthService) Logout(ctx context.Context, session *model.Session) {
	if !session.Authenticated() {
		return
	}

	s.publish(ctx, event.TypeSessionLogout, payloadFor(session, "success"))
	_ = session.Anonymize()
}

// Restore rebuilds the session for a persisted token. The returned session is
// never nil. A non-nil error means the token was rejected and should be
// forgotten; an empty token is simply anonymous.
func (s *AuthService) Restore(ctx context.Context, token string) (*model.Session, error) {
	session := model.NewSession()
	token = strings.TrimSpace(token)

	if token == "" {
		_ = session.Anonymize()
		return session, nil
	}

	if s.tokenExpired(token) {
		_ = session.Anonymize()
		s.publish(ctx, event.TypeSessionRejected, event.Payload{Status: "failure", Detail: "token expired"})
		return session, fmt.Errorf("%w: token expired", model.ErrTokenRejected)
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		_ = session.Anonymize()
		s.publish(ctx, event.TypeSessionRejected, event.Payload{Status: "failure", Detail: err.Error()})
		return session, fmt.Errorf("%w: %w", model.ErrTokenRejected, err)
	}

	if err := session.Authenticate(token, user); err != nil {
		_ = session.Anonymize()
		return session, fmt.Errorf("%w: %w", model.ErrTokenRejected, err)
	}

	return session, nil
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Tokens that do not parse are left for the backend to judge.
func (s *AuthService) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !exp.After(s.now())
}

func (s *AuthService) authenticated(result backend.AuthResult) (*model.Session, error) {
	session := model.NewSession()
	if err := session.Authenticate(result.Token, result.User); err != nil {
		return nil, apierror.Wrap(apierror.KindMalformed, "MALFORMED_RESPONSE", "backend returned an incomplete session", http.StatusBadGateway, err)
	}
	return session, nil
}

func (s *AuthService) publish(ctx context.Context, kind event.Type, payload event.Payload) {
	if s.bus == nil {
		return
	}
	payload.RequestID = backend.RequestIDFrom(ctx)
	s.bus.Publish(event.Event{Type: kind, Payload: payload})
	slog.DebugContext(ctx, "session event", "type", kind, "status", payload.Status, "username", payload.Username)
}

func payloadFor(session *model.Session, status string) event.Payload {
	payload := event.Payload{Status: status}
	if user := session.User(); user != nil {
		payload.UserID = user.ID
		payload.Username = user.Username
	}
	return payload
}

func invalidInput(message string) error {
	return apierror.Wrap(apierror.KindInvalid, "VALIDATION_ERROR", message, http.StatusBadRequest, model.ErrInvalidInput)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// IsRejectedToken reports whether err came from Restore rejecting a token.
func IsRejectedToken(err error) bool {
	return errors.Is(err, model.ErrTokenRejected)
}
