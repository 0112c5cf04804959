// Package telemetry wires OpenTelemetry tracing and Sentry error reporting.
// Both are opt-in: with no endpoint or DSN configured they are no-ops.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/keyxmakerx/mailroom/internal/config"
)

// Shutdown flushes pending telemetry.
type Shutdown func(context.Context) error

// SetupTracing installs a global tracer provider exporting over OTLP/HTTP.
// The returned shutdown should be deferred by the caller.
func SetupTracing(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	noop := func(context.Context) error { return nil }

	// Installed even without an exporter so backend calls carry the
	// upstream trace.
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if cfg.OTLPEndpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return noop, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return noop, fmt.Errorf("building tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// SetupSentry initialises the Sentry client when a DSN is configured and
// reports whether reporting is active.
func SetupSentry(cfg config.TelemetryConfig, env string) (bool, error) {
	if cfg.SentryDSN == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: env,
	}); err != nil {
		return false, fmt.Errorf("initialising sentry: %w", err)
	}
	return true, nil
}

// FlushSentry waits briefly for queued events to be sent.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err to Sentry with request tags. Safe to call when
// Sentry is not configured.
func CaptureError(err error, tags map[string]string) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
}
