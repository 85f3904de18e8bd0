// Package zapadapters implements the logging interfaces of the reservations package on go.uber.org/zap.
package zapadapters

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// Logger implements reservations.Logger and reservations.ContextualLogger.
// Arguments are slog-style key/value pairs, passed on as loosely typed zap fields.
// The context-aware methods add the trace and span id of a sampled span found in the context.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps logger.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{sugar: logger.Sugar()}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, withTrace(ctx, args)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, withTrace(ctx, args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, withTrace(ctx, args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, withTrace(ctx, args)...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func withTrace(ctx context.Context, args []any) []any {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return args
	}

	return append(args,
		fieldTraceID, spanContext.TraceID().String(),
		fieldSpanID, spanContext.SpanID().String(),
	)
}

var (
	_ reservations.Logger           = (*Logger)(nil)
	_ reservations.ContextualLogger = (*Logger)(nil)
)
