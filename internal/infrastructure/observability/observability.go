// Package observability wires OpenTelemetry tracing for the api and worker
// binaries. Chat task spans are started in the task package.
package observability

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"go-roomchat/internal/config"
)

// Process roles, recorded on every span.
const (
	RoleAPI    = "api"
	RoleWorker = "worker"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(ctx context.Context) error

func noop(context.Context) error { return nil }

// Setup installs an OTLP/HTTP tracer provider when tracing is enabled and an
// endpoint is configured. Otherwise it returns a no-op Shutdown.
func Setup(ctx context.Context, cfg *config.Config, role string, log zerolog.Logger) (Shutdown, error) {
	if !cfg.EnableTracing || cfg.OTLPEndpoint == "" {
		log.Info().Msg("Tracing disabled")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg, role)...))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().Str("endpoint", cfg.OTLPEndpoint).Str("role", role).Msg("Tracing enabled")
	return tp.Shutdown, nil
}

// resourceAttributes describes this process: which binary it is and which
// backends serve its store, cache and job queue.
func resourceAttributes(cfg *config.Config, role string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("roomchat.role", role),
		attribute.String("roomchat.store.backend", cfg.StoreBackend),
		attribute.String("roomchat.cache.backend", cfg.CacheBackend),
		attribute.String("roomchat.queue.backend", cfg.QueueBackend),
		attribute.String("roomchat.queue.name", cfg.QueueName),
	}
}
