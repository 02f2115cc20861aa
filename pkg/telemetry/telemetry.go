// Package telemetry wires OpenTelemetry tracing for the measurement
// tools.
//
// Configuration comes from the standard environment variables:
//
//	OTEL_ENABLED                    - enable tracing (default: false)
//	OTEL_SERVICE_NAME               - service name (default: mem-analysis)
//	OTEL_SERVICE_VERSION            - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT     - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL     - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS      - exporter headers (key=value,...)
//	OTEL_EXPORTER_OTLP_INSECURE     - skip TLS (default: false)
//	OTEL_TRACES_SAMPLER             - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG         - sampler argument
//	OTEL_RESOURCE_ATTRIBUTES        - extra resource attributes
//
// Call Init once at startup; when tracing is disabled it installs
// nothing and returns a no-op shutdown:
//
//	shutdown, err := telemetry.Init(ctx)
//	if err != nil {
//	    logger.Warn("telemetry init failed: %v", err)
//	}
//	defer shutdown(ctx)
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// Init sets up the global TracerProvider from the environment. Safe to
// call when tracing is disabled; spans then stay no-ops.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()

	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
		trace.WithSampler(createSampler(cfg)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	}, nil
}

// Enabled reports whether tracing is configured on.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the cached telemetry configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}
