package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dance-storefront/internal/config"
	"dance-storefront/internal/handler"
	"dance-storefront/internal/middleware"
	"dance-storefront/internal/view"
)

type Handlers struct {
	Pages  *handler.PageHandler
	Auth   *handler.AuthHandler
	API    *handler.APIHandler
	Media  *handler.MediaHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, sessions *middleware.SessionMiddleware, metrics *middleware.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Handler)
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	r.Method(http.MethodGet, "/metrics", metrics.Exposition())
	r.Method(http.MethodGet, "/static/*", view.Static())
	r.Get("/media", h.Media.Serve)

	// Sessions load inside the timeout handlers so every cookie a request
	// sets ends up in the same buffered header map.
	r.Group(func(pages chi.Router) {
		pages.Use(middleware.Timeout(cfg.RequestTimeout))
		pages.Use(sessions.Load)

		pages.Get("/", h.Pages.Home)
		pages.Get("/clases", h.Pages.Catalog)
		pages.Get("/clases/{slug}", h.Pages.ClassDetail)
		pages.Get("/watch/{slug}", h.Pages.Watch)

		pages.Get("/checkout", h.Pages.Checkout)
		pages.Post("/checkout", h.Pages.StartPayment)
		pages.Get("/checkout/{status}", h.Pages.CheckoutResult)

		pages.Get("/login", h.Auth.LoginForm)
		pages.Post("/login", h.Auth.Login)
		pages.Get("/register", h.Auth.RegisterForm)
		pages.Post("/register", h.Auth.Register)
		pages.Post("/logout", h.Auth.Logout)

		pages.With(sessions.RequireSession).Get("/mi-cuenta", h.Pages.Account)

		pages.NotFound(h.Pages.NotFound)
		pages.MethodNotAllowed(h.Pages.MethodNotAllowed)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.CORS(cfg.CORSOrigins))
		api.Use(middleware.APITimeout(cfg.RequestTimeout))
		api.Use(sessions.Load)

		api.Get("/session", h.API.Session)
		api.Get("/classes", h.API.Classes)
		api.With(sessions.RequireSession).Post("/payment/preference", h.API.CreatePreference)
	})

	return r
}
