package shell

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	// ErrorTypeNone is reported when the last attempt succeeded.
	ErrorTypeNone = "none"

	// ErrorTypeTransientFailure is reported for retryable store failures.
	ErrorTypeTransientFailure = "transient_failure"

	// ErrorTypeContextCanceled is reported when the context was canceled.
	ErrorTypeContextCanceled = "context_canceled"

	// ErrorTypeContextDeadlineExceeded is reported when the context deadline was exceeded.
	ErrorTypeContextDeadlineExceeded = "context_deadline_exceeded"

	// ErrorTypeOther is reported for every other, non-retryable error.
	ErrorTypeOther = "other"

	labelAttemptNumber  = "attempt_number"
	labelErrorType      = "error_type"
	labelFinalErrorType = "final_error_type"
)

var (
	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyCommandType is returned when an empty command type is provided to WithMetrics.
	ErrEmptyCommandType = errors.New("command type must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
// It must be safe to run again after a failed attempt, i.e. each attempt runs its own store transaction.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics describes the course of one RetryWithExponentialBackoff call.
type RetryMetrics struct {
	Attempts         int
	TotalDelay       time.Duration
	LastErrorType    string
	RetriesExhausted bool
}

type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector MetricsCollector
	commandType      string
}

// RetryWithExponentialBackoff executes fn and retries it on transient store failures.
//
// Retry Schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms (with 30% jitter)
// Use Case: serialization failures and deadlocks when many callers race for the same book counters
//
// Only reservations.ErrTransientFailure is retried. Business rejections like insufficient stock
// are final and fail fast, so are context cancellation and deadline errors.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetrics{}, err
		}
	}

	metrics := RetryMetrics{LastErrorType: ErrorTypeNone}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			backoffDelay := config.backoff(attempt)
			recordRetryDelayMetric(ctx, config, attempt, backoffDelay)

			timer := time.NewTimer(backoffDelay)
			select {
			case <-timer.C:
				metrics.TotalDelay += backoffDelay
			case <-ctx.Done():
				timer.Stop()
				metrics.LastErrorType = ErrorType(ctx.Err())

				return metrics, ctx.Err()
			}
		}

		metrics.Attempts++

		lastErr = fn(ctx)
		metrics.LastErrorType = ErrorType(lastErr)

		if lastErr == nil {
			return metrics, nil
		}

		if !IsRetryableError(lastErr) {
			return metrics, lastErr
		}

		if attempt < config.maxAttempts-1 {
			recordRetryAttemptMetric(ctx, config, attempt+1, lastErr)
		}
	}

	metrics.RetriesExhausted = true
	recordMaxRetriesReachedMetric(ctx, config, lastErr)

	return metrics, lastErr
}

// backoff returns baseDelay * 2^(attempt-1) plus up to jitterFactor of it.
func (c *retryConfig) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	jitter := rand.Float64() * float64(delay) * c.jitterFactor //nolint:gosec // math/rand is sufficient for jitter

	return delay + time.Duration(jitter)
}

func recordRetryDelayMetric(ctx context.Context, config *retryConfig, attempt int, backoffDelay time.Duration) {
	reservations.RecordDuration(ctx, config.metricsCollector, CommandHandlerRetryDelayMetric, backoffDelay, map[string]string{
		LogAttrCommandType: config.commandType,
		labelAttemptNumber: strconv.Itoa(attempt),
	})
}

func recordRetryAttemptMetric(ctx context.Context, config *retryConfig, attemptNumber int, lastErr error) {
	reservations.IncrementCounter(ctx, config.metricsCollector, CommandHandlerRetriesMetric,
		BuildRetryLabels(config.commandType, attemptNumber, ErrorType(lastErr)))
}

func recordMaxRetriesReachedMetric(ctx context.Context, config *retryConfig, lastErr error) {
	reservations.IncrementCounter(ctx, config.metricsCollector, CommandHandlerMaxRetriesReachedMetric, map[string]string{
		LogAttrCommandType:  config.commandType,
		labelFinalErrorType: ErrorType(lastErr),
	})
}

// IsRetryableError reports whether err is worth another attempt.
// Deadline errors are not retried: retrying timeouts during overload makes the overload worse.
func IsRetryableError(err error) bool {
	return errors.Is(err, reservations.ErrTransientFailure)
}

// ErrorType classifies err for metric labels and HandlerResult.LastErrorType.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ErrorTypeNone
	case errors.Is(err, reservations.ErrTransientFailure):
		return ErrorTypeTransientFailure
	case errors.Is(err, context.Canceled):
		return ErrorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeContextDeadlineExceeded
	default:
		return ErrorTypeOther
	}
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts, including the first one.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter as a fraction of the calculated backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithMetrics sets the metrics collector for retry instrumentation.
// Requires commandType to properly label metrics.
func WithMetrics(collector MetricsCollector, commandType string) RetryOption {
	return func(config *retryConfig) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if commandType == "" {
			return ErrEmptyCommandType
		}

		config.metricsCollector = collector
		config.commandType = commandType

		return nil
	}
}
