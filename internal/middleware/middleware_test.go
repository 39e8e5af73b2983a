package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"dance-storefront/internal/backend"
)

func TestLoggingPropagatesRequestID(t *testing.T) {
	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = backend.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "req-7", seen)
	require.Equal(t, "req-7", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clases", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/classes", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://www.youtube.com")
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://sdk.mercadopago.com")
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Handler)
	r.Get("/clases/{slug}", func(w http.ResponseWriter, r *http.Request) {
		metrics.Outcome("watch", "locked")
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Exposition())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clases/salsa", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `storefront_http_requests_total{method="GET",route="/clases/{slug}",status="200"} 1`)
	require.Contains(t, body, `storefront_flow_outcomes_total{flow="watch",state="locked"} 1`)

	var nilMetrics *Metrics
	nilMetrics.Outcome("watch", "locked")
}

func TestWantsJSON(t *testing.T) {
	require.True(t, WantsJSON(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)))
	require.False(t, WantsJSON(httptest.NewRequest(http.MethodGet, "/clases", nil)))

	req := httptest.NewRequest(http.MethodGet, "/clases", nil)
	req.Header.Set("Accept", "application/json")
	require.True(t, WantsJSON(req))
}
