package core

import (
	"context"
	"runtime"

	"authgate/internal/configuration"
	"authgate/internal/models"

	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// NewTracerProvider registers the global tracer provider. When tracing is disabled the returned shutdown is a no-op.
func NewTracerProvider(ctx context.Context, config models.TracingConfiguration) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !config.Enabled {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(config.Endpoint))
	if err != nil {
		return noop, err
	}

	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = configuration.AppName
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	zap.L().Info("Tracing enabled", zap.String("endpoint", config.Endpoint), zap.String("service", serviceName))
	return tp.Shutdown, nil
}

// StartProfiler pushes continuous profiles to a Pyroscope server. Returns nil when profiling is disabled.
func StartProfiler(config models.ProfilingConfiguration) (*pyroscope.Profiler, error) {
	if !config.Enabled {
		return nil, nil
	}

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: configuration.AppName,
		ServerAddress:   config.ServerAddress,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Profiling enabled", zap.String("server_address", config.ServerAddress))
	return profiler, nil
}
