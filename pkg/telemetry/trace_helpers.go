package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a named tracer from the global provider, defaulting to
// ServiceName
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = ServiceName
	}
	return otel.GetTracerProvider().Tracer(name)
}

// WithSpan runs f inside a span, marking the span failed when f errors
func WithSpan(ctx context.Context, name string, f func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := Tracer(ServiceName).Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := f(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// SetAttributes adds attributes to the current span
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// AddEvent adds an event to the current span
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SkippedDefinition records a file dropped during sync, with the parse error
// that caused it
func SkippedDefinition(ctx context.Context, path string, err error) {
	AddEvent(ctx, "definition.skipped",
		attribute.String("path", path),
		attribute.String("reason", err.Error()),
	)
}

// RecordError records an error the caller recovered from. The span status is
// left alone; a source that fails while others succeed does not fail the
// enclosing command.
func RecordError(ctx context.Context, err error, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(attrs...))
}
