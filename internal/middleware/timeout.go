package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds page rendering time. The message is shown as-is by
// http.TimeoutHandler.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `<!doctype html><html lang="es"><head><meta charset="utf-8"><title>Tiempo agotado</title></head>` +
		`<body><h1>La página tardó demasiado</h1><p><a href="/">Volver al inicio</a></p></body></html>`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}

// APITimeout is Timeout for JSON routes.
func APITimeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
