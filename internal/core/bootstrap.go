package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"authgate/internal/cache"
	"authgate/internal/configuration"
	m "authgate/internal/middlewares"
	"authgate/internal/models"
	"authgate/internal/screen"
	"authgate/internal/services"
	"authgate/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// StartWorkers runs the background workers until ctx is done.
func StartWorkers(ctx context.Context, screens *screen.Registry) {
	worker := &workers.ScreenSweeperWorker{
		Screens:     screens,
		RunInterval: configuration.ScreenSweepIntervalSecs * time.Second,
	}
	go worker.Start(ctx)
}

func NewRouter(
	config models.Configuration,
	store cache.ISessionStore,
	screens *screen.Registry,
	exchanger services.CodeExchanger,
) http.Handler {
	// Provider calls are made within the request, so the deadline must outlive the provider timeout.
	requestTimeout := time.Duration(config.Provider.TimeoutSeconds)*time.Second + 5*time.Second

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(m.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.App.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", services.Health)

	r.Group(func(r chi.Router) {
		r.Use(m.BrowserID(config.App.SecureCookies))

		r.Mount("/", services.ScreenService{
			Screens:   screens,
			Exchanger: exchanger,
			WebURL:    config.App.WebURL,
			Limiter:   m.RateLimit(store, config.App.SignInRateLimit, config.App.TrustedProxies),
		}.Routes())
	})

	return otelhttp.NewHandler(r, configuration.AppName)
}

// StartHTTPServer serves handler until ctx is done, then drains in-flight requests.
func StartHTTPServer(ctx context.Context, config models.Configuration, handler http.Handler) error {
	requestTimeout := time.Duration(config.Provider.TimeoutSeconds)*time.Second + 5*time.Second

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.App.Port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server starting", zap.Int("port", config.App.Port))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
