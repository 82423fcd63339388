package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"authgate/internal/authform"
	"authgate/internal/configuration"
	"authgate/internal/core"
	"authgate/internal/provider"
	"authgate/internal/screen"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	config := configuration.Read()
	logger := core.NewLogger(config.App.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := core.NewTracerProvider(ctx, config.Tracing)
	if err != nil {
		zap.L().Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			zap.L().Error("Failed to flush traces", zap.Error(err))
		}
	}()

	profiler, err := core.StartProfiler(config.Profiling)
	if err != nil {
		zap.L().Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler != nil {
		defer func() { _ = profiler.Stop() }()
	}

	store, err := core.NewCache(config.Cache)
	if err != nil {
		zap.L().Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	appIdentity := uuid.New().String()

	eventsManager, err := core.NewEventsManager(config.Events, appIdentity)
	if err != nil {
		zap.L().Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer eventsManager.Close()

	client := provider.NewClient(provider.Options{
		URL:        config.Provider.URL,
		AnonKey:    config.Provider.AnonKey,
		JWTSecret:  config.Provider.JWTSecret,
		Timeout:    time.Duration(config.Provider.TimeoutSeconds) * time.Second,
		Store:      store,
		Publisher:  eventsManager.Publisher(),
		InstanceID: appIdentity,
	})

	go func() {
		if err := client.Listen(ctx, eventsManager.Subscriber()); err != nil {
			zap.L().Error("Auth state relay stopped", zap.Error(err))
		}
	}()

	screens := screen.NewRegistry(client, authform.Options{
		OAuthProvider:   config.Provider.OAuthProvider,
		OAuthRedirectTo: config.App.WebURL + configuration.OAuthCallbackPath,
	}, time.Duration(config.App.ScreenIdleMinutes)*time.Minute)
	defer screens.Close()

	core.StartWorkers(ctx, screens)

	handler := core.NewRouter(config, store, screens, client)
	if err = core.StartHTTPServer(ctx, config, handler); err != nil {
		zap.L().Error("HTTP server stopped", zap.Error(err))
	}
	zap.L().Info("Shut down", zap.String("instance_id", appIdentity))
}
