package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
)

// QueryWrapper instruments any query handler with metrics, tracing, and logging.
type QueryWrapper[Q shell.Query, R any] struct {
	instrumentation
	coreHandler shell.QueryHandler[Q, R]
	queryType   string
}

// NewQueryWrapper creates an observable wrapper around coreHandler.
func NewQueryWrapper[Q shell.Query, R any](
	coreHandler shell.QueryHandler[Q, R],
	opts ...Option,
) (*QueryWrapper[Q, R], error) {
	i, err := newInstrumentation(opts)
	if err != nil {
		return nil, err
	}

	var zeroQuery Q

	return &QueryWrapper[Q, R]{
		instrumentation: i,
		coreHandler:     coreHandler,
		queryType:       zeroQuery.QueryType(),
	}, nil
}

// Handle executes the wrapped handler and records its outcome.
func (w *QueryWrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	queryStart := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, w.tracingCollector, w.queryType)
	shell.LogQueryStart(ctx, w.logger, w.contextualLogger, w.queryType)

	result, err := w.coreHandler.Handle(ctx, query)

	duration := time.Since(queryStart)
	status := shell.QueryStatus(err)

	shell.RecordQueryMetrics(ctx, w.metricsCollector, w.queryType, status, duration)
	shell.FinishQuerySpan(w.tracingCollector, span, status, duration, err)

	if err != nil {
		shell.LogQueryError(ctx, w.logger, w.contextualLogger, w.queryType, err)
		return result, err
	}

	shell.LogQuerySuccess(ctx, w.logger, w.contextualLogger, w.queryType, duration)

	return result, nil
}
