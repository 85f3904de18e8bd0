package lifecycle

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// ErrNilIDGenerator is returned when WithIDGenerator is called with nil.
var ErrNilIDGenerator = errors.New("id generator must not be nil")

// ErrNilClock is returned when WithClock is called with nil.
var ErrNilClock = errors.New("clock must not be nil")

// Option defines a functional option for configuring a StateMachine.
type Option func(*StateMachine) error

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(clock func() time.Time) Option {
	return func(m *StateMachine) error {
		if clock == nil {
			return ErrNilClock
		}

		m.clock = clock

		return nil
	}
}

// WithIDGenerator sets the generator for new reservation ids. Defaults to uuid.NewV7.
func WithIDGenerator(generate func() (uuid.UUID, error)) Option {
	return func(m *StateMachine) error {
		if generate == nil {
			return ErrNilIDGenerator
		}

		m.newID = generate

		return nil
	}
}

// WithLogger sets the logger. Info level: every completed transition.
func WithLogger(logger reservations.Logger) Option {
	return func(m *StateMachine) error {
		m.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger, it takes precedence over the plain logger.
func WithContextualLogger(logger reservations.ContextualLogger) Option {
	return func(m *StateMachine) error {
		m.contextualLogger = logger
		return nil
	}
}
