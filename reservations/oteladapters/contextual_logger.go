package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// SlogBridgeLogger implements reservations.ContextualLogger on a *slog.Logger.
// Built with NewSlogBridgeLogger it writes through the otelslog bridge to the global LoggerProvider,
// so every record carries the trace and span id found in the context.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a logger on the otelslog bridge, name is the instrumentation scope.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler creates a logger on handler. No trace correlation is added.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

var _ reservations.ContextualLogger = (*SlogBridgeLogger)(nil)

// OTelLogger implements reservations.ContextualLogger by emitting log records directly on an OpenTelemetry log.Logger.
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates a logger emitting on logger.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args)
}

func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args)
}

func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args)
}

func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args)
}

// emit converts slog-style key/value args into record attributes. A trailing key without value is dropped,
// as are pairs whose key is not a string.
func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args []any) {
	var record log.Record
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(log.StringValue(msg))

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		record.AddAttributes(toLogKeyValue(key, args[i+1]))
	}

	l.logger.Emit(ctx, record)
}

func toLogKeyValue(key string, value any) log.KeyValue {
	switch v := value.(type) {
	case string:
		return log.String(key, v)
	case int:
		return log.Int(key, v)
	case int64:
		return log.Int64(key, v)
	case float64:
		return log.Float64(key, v)
	case bool:
		return log.Bool(key, v)
	case error:
		return log.String(key, v.Error())
	default:
		return log.String(key, slog.AnyValue(v).String())
	}
}

var _ reservations.ContextualLogger = (*OTelLogger)(nil)
