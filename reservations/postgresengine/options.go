package postgresengine

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// ErrInvalidTransactionTimeout is returned when WithTransactionTimeout is called with a non-positive duration.
var ErrInvalidTransactionTimeout = errors.New("transaction timeout must be positive")

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: committed transactions with durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger reservations.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It takes precedence over the plain logger and correlates log records with the active trace.
func WithContextualLogger(logger reservations.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives query and transaction durations and database error counts.
func WithMetrics(collector reservations.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store. Every transaction gets one span.
func WithTracing(collector reservations.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithTransactionTimeout bounds every WithinTx call, including the time spent waiting for row locks.
func WithTransactionTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout <= 0 {
			return ErrInvalidTransactionTimeout
		}

		s.txTimeout = timeout

		return nil
	}
}

// WithClock sets the time source for counter update timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) error {
		s.clock = clock
		return nil
	}
}
