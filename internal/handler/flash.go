package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const flashSessionName = "storefront_flash"

// Flash carries one-shot messages across a redirect in a signed cookie.
type Flash struct {
	store *sessions.CookieStore
}

func NewFlash(secret []byte, secure bool) *Flash {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Flash{store: store}
}

func (f *Flash) Add(w http.ResponseWriter, r *http.Request, message string) {
	session, err := f.store.Get(r, flashSessionName)
	if err != nil {
		// a cookie signed with an old secret decodes to a fresh session
		slog.DebugContext(r.Context(), "flash cookie reset", "error", err)
	}

	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		slog.WarnContext(r.Context(), "save flash failed", "error", err)
	}
}

// Pop returns and clears the pending message, if any.
func (f *Flash) Pop(w http.ResponseWriter, r *http.Request) string {
	if _, err := r.Cookie(flashSessionName); err != nil {
		return ""
	}

	session, err := f.store.Get(r, flashSessionName)
	if err != nil {
		return ""
	}

	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(r, w); err != nil {
		slog.WarnContext(r.Context(), "clear flash failed", "error", err)
	}

	message, _ := flashes[0].(string)
	return message
}
