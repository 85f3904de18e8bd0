package inventory

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

func (l Ledger) logInfo(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l Ledger) logError(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if l.logger != nil {
		l.logger.Error(msg, args...)
	}
}

func (l Ledger) countReserve(ctx context.Context, status string) {
	reservations.IncrementCounter(ctx, l.metricsCollector, MetricReserve, map[string]string{labelStatus: status})
}

func (l Ledger) countRelease(ctx context.Context, status string) {
	reservations.IncrementCounter(ctx, l.metricsCollector, MetricRelease, map[string]string{labelStatus: status})
}

func (l Ledger) startSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, reservations.SpanContext) {
	if l.tracingCollector == nil {
		return ctx, nil
	}

	return l.tracingCollector.StartSpan(ctx, name, attrs)
}

func (l Ledger) finishSpan(span reservations.SpanContext, status string) {
	if l.tracingCollector == nil || span == nil {
		return
	}

	l.tracingCollector.FinishSpan(span, status, nil)
}
