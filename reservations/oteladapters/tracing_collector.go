package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const attrStatus = "status"

// TracingCollector implements reservations.TracingCollector with the OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector that starts spans on tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a child span of the span in ctx and returns the context carrying it.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, reservations.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status, and ends the span.
// Span contexts not created by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx reservations.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ reservations.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps the status strings used across the engine to span status codes.
// Business outcomes that are not failures (rejected, noop, skipped) are recorded as an attribute only.
func (s *OTelSpanContext) SetStatus(status string) {
	s.span.SetAttributes(attribute.String(attrStatus, status))

	switch status {
	case "success", "idempotent", "noop":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed":
		s.span.SetStatus(codes.Error, "operation failed")
	case "rolled_back":
		s.span.SetStatus(codes.Error, "transaction rolled back")
	case "canceled":
		s.span.SetStatus(codes.Error, "operation canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "operation timed out")
	}
}

// AddAttribute sets a string attribute on the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ reservations.SpanContext = (*OTelSpanContext)(nil)
