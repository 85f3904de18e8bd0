package reservations

import (
	"context"
	"time"
)

// Logger interface for SQL query logging, operational messages, warnings, and error reporting.
// *slog.Logger satisfies it, so does zapadapters.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// This interface follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// allowing users to integrate with any logging backend that supports context-based correlation.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting store, ledger, and handler metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for better tracing integration.
// Components use the context-aware methods when available, falling back to the base MetricsCollector interface.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information.
// Any tracing backend (OpenTelemetry, Jaeger, Zipkin, etc.) can be integrated by implementing this interface.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// IncrementCounter increments a counter on collector, preferring the context-aware method.
// A nil collector is a no-op.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// RecordDuration records a duration on collector, preferring the context-aware method.
// A nil collector is a no-op.
func RecordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

// RecordValue records a value on collector, preferring the context-aware method.
// A nil collector is a no-op.
func RecordValue(ctx context.Context, collector MetricsCollector, metric string, value float64, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}
