package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dance-storefront/internal/model"
	"dance-storefront/internal/util"
)

type sessionRestorer interface {
	Restore(ctx context.Context, token string) (*model.Session, error)
}

type contextKey string

const sessionContextKey contextKey = "session"

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// SessionMiddleware restores the per-request Session from the token cookie
// and owns that cookie's lifecycle.
type SessionMiddleware struct {
	restorer sessionRestorer
	cookie   CookieConfig
}

func NewSessionMiddleware(restorer sessionRestorer, cookie CookieConfig) *SessionMiddleware {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = 7 * 24 * time.Hour
	}
	return &SessionMiddleware{restorer: restorer, cookie: cookie}
}

// Load places a Session in the request context. A rejected token is cleared
// so the next request does not retry it.
func (m *SessionMiddleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(m.cookie.Name); err == nil {
			token = cookie.Value
		}

		session, err := m.restorer.Restore(r.Context(), token)
		if err != nil {
			slog.InfoContext(r.Context(), "persisted session rejected", "error", err)
			m.ClearToken(w)
		}
		if session == nil {
			session = model.NewSession()
			_ = session.Anonymize()
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireSession redirects anonymous page requests to the login page with the
// requested URL as return target; API requests get 401.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = jsonEncode(w, model.APIResponse{
				Success: false,
				Error:   &model.APIError{Code: "UNAUTHORIZED", Message: "authentication required"},
			})
			return
		}

		http.Redirect(w, r, util.LoginRedirect(r.URL.RequestURI()), http.StatusSeeOther)
	})
}

func (m *SessionMiddleware) SetToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.cookie.TTL),
		MaxAge:   int(m.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionMiddleware) ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the request's Session, or an anonymous one when
// none was loaded.
func SessionFromContext(ctx context.Context) *model.Session {
	if session, ok := ctx.Value(sessionContextKey).(*model.Session); ok && session != nil {
		return session
	}
	session := model.NewSession()
	_ = session.Anonymize()
	return session
}
