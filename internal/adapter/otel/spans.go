package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "homeroom"

// StartResolveSpan starts a span for tenant resolution.
func StartResolveSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant.resolve",
		trace.WithAttributes(
			attribute.String("resolve.source", source),
		),
	)
}

// StartAuthzSpan starts a span for an authorization check.
func StartAuthzSpan(ctx context.Context, strategy, resourceID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "authz.check",
		trace.WithAttributes(
			attribute.String("authz.strategy", strategy),
			attribute.String("authz.resource", resourceID),
		),
	)
}

// StartRosterSpan starts a span for a roster mutation.
func StartRosterSpan(ctx context.Context, activity, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "roster."+op,
		trace.WithAttributes(
			attribute.String("activity.name", activity),
		),
	)
}
