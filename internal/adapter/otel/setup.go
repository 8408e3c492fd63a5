// Package otel provides a stub for OpenTelemetry tracing setup.
// Span and metric instruments are wired; exporting to a collector
// is deferred until one is deployed.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function. Once a collector is
// available this will initialize an OTLP exporter and TracerProvider.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel stub: InitTracer called", "service", serviceName)
	return func(_ context.Context) error {
		slog.Info("otel stub: shutdown called")
		return nil
	}
}
