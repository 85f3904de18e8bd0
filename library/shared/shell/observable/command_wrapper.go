package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// CommandWrapper instruments any command handler with metrics, tracing, and logging.
// It delegates the workflow to the wrapped handler and translates its HandlerResult and error into signals.
type CommandWrapper[C shell.Command, R any] struct {
	instrumentation
	coreHandler shell.CommandHandler[C, R]
	commandType string
}

// NewCommandWrapper creates an observable wrapper around coreHandler.
func NewCommandWrapper[C shell.Command, R any](
	coreHandler shell.CommandHandler[C, R],
	opts ...Option,
) (*CommandWrapper[C, R], error) {
	i, err := newInstrumentation(opts)
	if err != nil {
		return nil, err
	}

	var zeroCommand C

	return &CommandWrapper[C, R]{
		instrumentation: i,
		coreHandler:     coreHandler,
		commandType:     zeroCommand.CommandType(),
	}, nil
}

// Handle executes the wrapped handler and records its outcome.
func (w *CommandWrapper[C, R]) Handle(ctx context.Context, command C) (R, shell.HandlerResult, error) {
	commandStart := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogCommandStart(ctx, w.logger, w.contextualLogger, w.commandType)

	result, handlerResult, err := w.coreHandler.Handle(ctx, command)

	duration := time.Since(commandStart)
	status := shell.CommandStatus(handlerResult, err)

	w.recordRetryMetrics(ctx, handlerResult)
	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishCommandSpan(w.tracingCollector, span, status, duration, handlerResult.RetryAttempts, err)

	if err != nil {
		shell.LogCommandError(ctx, w.logger, w.contextualLogger, w.commandType, err)
		return result, handlerResult, err
	}

	shell.LogCommandSuccess(ctx, w.logger, w.contextualLogger, w.commandType, status, handlerResult, duration)

	return result, handlerResult, nil
}

// recordRetryMetrics records retry execution metadata from the handler result.
func (w *CommandWrapper[C, R]) recordRetryMetrics(ctx context.Context, result shell.HandlerResult) {
	if w.metricsCollector == nil {
		return
	}

	if result.RetryAttempts > 1 {
		reservations.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerRetriesMetric,
			shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType))

		reservations.RecordDuration(ctx, w.metricsCollector, shell.CommandHandlerRetryDelayMetric, result.TotalRetryDelay,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}

	if result.RetriesExhausted {
		reservations.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerMaxRetriesReachedMetric,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}
}
