package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"dance-storefront/internal/model"
)

const panicPage = `<!doctype html><html lang="es"><head><meta charset="utf-8"><title>Error</title></head>` +
	`<body><h1>Algo salió mal</h1><p>Ocurrió un error inesperado. Intenta nuevamente.</p><p><a href="/">Volver al inicio</a></p></body></html>`

// Recovery turns panics into a 500 response: JSON for API callers, a static
// page otherwise.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			slog.ErrorContext(r.Context(), "panic recovered",
				"error", fmt.Sprintf("%v", recovered),
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if WantsJSON(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = jsonEncode(w, model.APIResponse{
					Success: false,
					Error: &model.APIError{
						Code:    "INTERNAL_ERROR",
						Message: "Unexpected server error",
					},
				})
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(panicPage))
		}()

		next.ServeHTTP(w, r)
	})
}

// WantsJSON reports whether r targets the JSON API rather than a page.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
