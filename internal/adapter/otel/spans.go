package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pmreport"

// StartSubmissionSpan starts a span for one call to the project service.
func StartSubmissionSpan(ctx context.Context, sessionID string, seq uint64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "submission",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int64("submission.seq", int64(seq)),
		),
	)
}

// StartRenderSpan starts a span for rendering a report.
func StartRenderSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "render",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
}
