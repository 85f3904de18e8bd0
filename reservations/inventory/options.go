package inventory

import (
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithLogger sets the logger for the Ledger.
// Info level: rejected reservations. Error level: over-releases and failed compensations.
func WithLogger(logger reservations.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Ledger.
// It takes precedence over the plain logger and adds trace correlation.
func WithContextualLogger(logger reservations.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Ledger.
func WithMetrics(collector reservations.MetricsCollector) Option {
	return func(l *Ledger) error {
		l.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Ledger.
func WithTracing(collector reservations.TracingCollector) Option {
	return func(l *Ledger) error {
		l.tracingCollector = collector
		return nil
	}
}
