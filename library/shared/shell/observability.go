package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric tracks commands that completed without a state change.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// CommandHandlerRejectedMetric tracks commands rejected by a business rule or validation.
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerCanceledMetric tracks canceled operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks timeout operations.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerTransientFailureMetric tracks commands that failed with a transient store failure after all retries.
	CommandHandlerTransientFailureMetric = "commandhandler_transient_failures_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timeout query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "ReserveBooks")
	//   - attempt_number: Which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: Category of error causing retry (e.g., "transient_failure")
	//
	// Use cases:
	//   - Alert on high retry rates: rate(commandhandler_retries_total[5m])
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks backoff delays in command handlers, labeled by command_type and attempt_number.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	//
	// Labels:
	//   - command_type: Type of command that exhausted retries
	//   - final_error_type: Error type that caused final failure
	//
	// Use cases:
	//   - Alert on retry exhaustion: increase(commandhandler_max_retries_reached_total[5m]) > 0
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"

	// StatusError indicates a processing error caused by the system.
	StatusError = "error"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusRejected indicates the request was refused by a business rule or validation.
	StatusRejected = "rejected"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// StatusTransientFailure indicates the store kept failing with retryable errors.
	StatusTransientFailure = "transient_failure"

	// LogMsgCommandStarted is logged when command processing begins.
	LogMsgCommandStarted = "command handler started"

	// LogMsgCommandCompleted is logged when command processing succeeds.
	LogMsgCommandCompleted = "command handler completed"

	// LogMsgCommandRejected is logged when a command is refused by a business rule.
	LogMsgCommandRejected = "command handler rejected command"

	// LogMsgCommandFailed is logged when command processing fails.
	LogMsgCommandFailed = "command handler failed"

	// LogMsgQueryStarted is logged when query processing begins.
	LogMsgQueryStarted = "query handler started"

	// LogMsgQueryCompleted is logged when query processing succeeds.
	LogMsgQueryCompleted = "query handler completed"

	// LogMsgQueryRejected is logged when a query is refused, e.g. for an unknown user.
	LogMsgQueryRejected = "query handler rejected query"

	// LogMsgQueryFailed is logged when query processing fails.
	LogMsgQueryFailed = "query handler failed"

	// LogAttrCommandType identifies the command type in logs.
	LogAttrCommandType = "command_type"

	// LogAttrQueryType identifies the query type in logs.
	LogAttrQueryType = "query_type"

	// LogAttrStatus indicates the processing status.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrBusinessOutcome classifies the business result.
	LogAttrBusinessOutcome = "business_outcome"

	// LogAttrRetryAttempts is the number of attempts a command needed.
	LogAttrRetryAttempts = "retry_attempts"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// SpanNameCommandHandle is the tracing span name for command handling.
	SpanNameCommandHandle = "commandhandler.handle"

	// SpanNameQueryHandle is the tracing span name for query handling.
	SpanNameQueryHandle = "queryhandler.handle"
)

// MetricsCollector interface for collecting command handler performance metrics.
type MetricsCollector = reservations.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = reservations.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in handlers.
type TracingCollector = reservations.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = reservations.SpanContext

// ContextualLogger interface for context-aware logging in handlers.
type ContextualLogger = reservations.ContextualLogger

// Logger interface for basic logging in handlers.
type Logger = reservations.Logger

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		labelAttemptNumber: strconv.Itoa(attemptNumber),
		labelErrorType:     errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// CommandStatus derives the status label of a finished command.
func CommandStatus(result HandlerResult, err error) string {
	switch {
	case err == nil && result.Idempotent:
		return StatusIdempotent
	case err == nil:
		return StatusSuccess
	default:
		return errorStatus(err)
	}
}

// QueryStatus derives the status label of a finished query.
func QueryStatus(err error) string {
	if err == nil {
		return StatusSuccess
	}

	return errorStatus(err)
}

func errorStatus(err error) string {
	switch {
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	case errors.Is(err, reservations.ErrTransientFailure):
		return StatusTransientFailure
	case reservations.IsClientError(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// RecordCommandMetrics records the duration and call counters of a command operation.
// Idempotent, rejected, canceled, timeout, and transient failure outcomes get their own counter as well.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	reservations.RecordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	reservations.IncrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	outcomeMetric := map[string]string{
		StatusIdempotent:       CommandHandlerIdempotentMetric,
		StatusRejected:         CommandHandlerRejectedMetric,
		StatusCanceled:         CommandHandlerCanceledMetric,
		StatusTimeout:          CommandHandlerTimeoutMetric,
		StatusTransientFailure: CommandHandlerTransientFailureMetric,
	}[status]

	if outcomeMetric != "" {
		reservations.IncrementCounter(ctx, collector, outcomeMetric, BuildCommandLabels(commandType, status))
	}
}

// RecordQueryMetrics records the duration and call counters of a query operation.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	reservations.RecordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	reservations.IncrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	switch status {
	case StatusCanceled:
		reservations.IncrementCounter(ctx, collector, QueryHandlerCanceledMetric, BuildQueryLabels(queryType, status))
	case StatusTimeout:
		reservations.IncrementCounter(ctx, collector, QueryHandlerTimeoutMetric, BuildQueryLabels(queryType, status))
	}
}

// StartCommandSpan starts a tracing span for command operations.
// Returns the original context and a nil span if tracing is disabled.
func StartCommandSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	commandType string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameCommandHandle, map[string]string{
		LogAttrCommandType: commandType,
	})
}

// FinishCommandSpan completes a command span with the operation outcome.
func FinishCommandSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	retryAttempts int,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := spanAttributes(status, duration, err)
	attrs[LogAttrRetryAttempts] = strconv.Itoa(retryAttempts)

	tracingCollector.FinishSpan(span, status, attrs)
}

// StartQuerySpan starts a tracing span for query operations.
// Returns the original context and a nil span if tracing is disabled.
func StartQuerySpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	queryType string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameQueryHandle, map[string]string{
		LogAttrQueryType: queryType,
	})
}

// FinishQuerySpan completes a query span with the operation outcome.
func FinishQuerySpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	tracingCollector.FinishSpan(span, status, spanAttributes(status, duration, err))
}

func spanAttributes(status string, duration time.Duration, err error) map[string]string {
	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	return attrs
}

// LogCommandStart logs the beginning of command processing.
func LogCommandStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string) {
	logInfo(ctx, logger, contextualLogger, LogMsgCommandStarted, LogAttrCommandType, commandType)
}

// LogCommandSuccess logs successful command completion.
func LogCommandSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	businessOutcome string,
	result HandlerResult,
	duration time.Duration,
) {
	logInfo(ctx, logger, contextualLogger, LogMsgCommandCompleted,
		LogAttrCommandType, commandType,
		LogAttrBusinessOutcome, businessOutcome,
		LogAttrRetryAttempts, result.RetryAttempts,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// LogCommandError logs command processing errors.
// Rejections caused by the request are logged at warn level, everything else at error level.
func LogCommandError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	err error,
) {
	args := []any{LogAttrCommandType, commandType, LogAttrError, err.Error()}

	if reservations.IsClientError(err) {
		logWarn(ctx, logger, contextualLogger, LogMsgCommandRejected, args...)
		return
	}

	logError(ctx, logger, contextualLogger, LogMsgCommandFailed, args...)
}

// LogQueryStart logs the beginning of query processing.
func LogQueryStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string) {
	logInfo(ctx, logger, contextualLogger, LogMsgQueryStarted, LogAttrQueryType, queryType)
}

// LogQuerySuccess logs successful query completion.
func LogQuerySuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	duration time.Duration,
) {
	logInfo(ctx, logger, contextualLogger, LogMsgQueryCompleted,
		LogAttrQueryType, queryType,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// LogQueryError logs query processing errors, client errors at warn level.
func LogQueryError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	err error,
) {
	args := []any{LogAttrQueryType, queryType, LogAttrError, err.Error()}

	if reservations.IsClientError(err) {
		logWarn(ctx, logger, contextualLogger, LogMsgQueryRejected, args...)
		return
	}

	logError(ctx, logger, contextualLogger, LogMsgQueryFailed, args...)
}

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

func logWarn(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
