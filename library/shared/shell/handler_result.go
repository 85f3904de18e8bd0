package shell

import "time"

// HandlerResult represents the outcome of a command handler execution.
// It captures the business outcome (idempotency) and execution metadata (retries)
// without coupling the handler to an observability implementation.
type HandlerResult struct {
	// Idempotent indicates the command completed without changing any state, e.g. a sweep with nothing to expire.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays, excluding execution time.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error seen by the retry loop.
	// Values: "none", "transient_failure", "context_canceled", "context_deadline_exceeded", "other"
	LastErrorType string

	// RetriesExhausted is true when every attempt failed with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for operations that changed state.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return fromRetryMetrics(retryMetrics, false)
}

// NewIdempotentResult creates a HandlerResult for operations that completed without a state change.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	return fromRetryMetrics(retryMetrics, true)
}

// NewErrorResult creates a HandlerResult for failed operations, keeping the retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return fromRetryMetrics(retryMetrics, false)
}

func fromRetryMetrics(retryMetrics RetryMetrics, idempotent bool) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
