package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/config"
	"dance-storefront/internal/database"
	"dance-storefront/internal/event"
	"dance-storefront/internal/handler"
	"dance-storefront/internal/middleware"
	"dance-storefront/internal/repository"
	"dance-storefront/internal/router"
	"dance-storefront/internal/service"
	"dance-storefront/internal/view"
)

type App struct {
	server          *http.Server
	shutdownTimeout time.Duration
	cleanupFuncs    []func()
}

func New(cfg *config.Config) (*App, error) {
	client := backend.New(cfg.BackendURL, cfg.BackendAPIPrefix, cfg.BackendTimeout)
	bus := event.NewBus()

	var db *database.DB
	var health *handler.HealthHandler
	auditService := service.NewAuditService(nil)

	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		connected, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := connected.EnsureSchema(context.Background()); err != nil {
			connected.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		db = connected
		auditService = service.NewAuditService(repository.NewAuditRepository(db.Pool))
		health = handler.NewHealthHandler(db, cfg.MediaCacheDir)
		slog.Info("database ready")
	} else {
		slog.Info("DATABASE_URL not set, audit events are only logged")
		health = handler.NewHealthHandler(nil, cfg.MediaCacheDir)
	}

	auditCtx, auditCancel := context.WithCancel(context.Background())
	go auditService.Run(auditCtx, bus)

	mediaService, err := service.NewMediaService(service.MediaConfig{
		Hosts:         cfg.MediaHosts,
		BackendHost:   cfg.BackendHost(),
		CacheDir:      cfg.MediaCacheDir,
		CacheMaxBytes: int64(cfg.MediaCacheMB) << 20,
		MaxWidth:      cfg.MediaMaxWidth,
		Timeout:       cfg.BackendTimeout,
	})
	if err != nil {
		auditCancel()
		db.Close()
		return nil, fmt.Errorf("failed to initialize media service: %w", err)
	}

	renderer, err := view.New()
	if err != nil {
		auditCancel()
		db.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	authService := service.NewAuthService(client, bus)
	catalogService := service.NewCatalogService(client)
	watchService := service.NewWatchService(client)
	checkoutService := service.NewCheckoutService(client, bus, cfg.PaymentPublicKey)

	sessions := middleware.NewSessionMiddleware(authService, middleware.CookieConfig{
		Name:   cfg.TokenCookieName,
		TTL:    cfg.TokenTTL,
		Secure: cfg.CookieSecure,
	})
	metrics := middleware.NewMetrics()
	flash := handler.NewFlash([]byte(cfg.SessionSecret), cfg.CookieSecure)

	appRouter := router.New(cfg, sessions, metrics, router.Handlers{
		Pages:  handler.NewPageHandler(renderer, flash, metrics, catalogService, watchService, checkoutService, auditService),
		Auth:   handler.NewAuthHandler(renderer, flash, metrics, authService, sessions),
		API:    handler.NewAPIHandler(catalogService, checkoutService, metrics),
		Media:  handler.NewMediaHandler(mediaService),
		Health: health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		cleanupFuncs: []func(){
			auditCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("shutdown requested", "signal", sig.String())
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}
