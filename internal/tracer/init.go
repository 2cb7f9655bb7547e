package tracer

import (
	"context"
	"log"

	"donkey-remote-be/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// InitTracer installs an OTLP HTTP tracer provider for the control tick and
// request spans. With tracing disabled, or when the exporter cannot be
// built, the global no-op provider stays in place.
func InitTracer(cfg config.OtelConfig) ShutdownFunc {
	if !cfg.Enabled {
		log.Println("[INFO] Tracing disabled (OTEL_ENABLED=false)")
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("[WARN] OTLP exporter for %s unavailable, tracing disabled: %v", cfg.Endpoint, err)
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Printf("[INFO] Tracing %s spans to %s", cfg.ServiceName, cfg.Endpoint)
	return tp.Shutdown
}
