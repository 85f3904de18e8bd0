package registeruser

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// Store defines the interface needed by the CommandHandler for store operations.
type Store interface {
	WithinTx(ctx context.Context, fn reservations.TxFunc) error
}

// CommandHandler validates and stores new users.
type CommandHandler struct {
	store        Store
	clock        func() time.Time
	newID        func() (uuid.UUID, error)
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithClock sets the time source for creation timestamps.
func WithClock(clock func() time.Time) Option {
	return func(h *CommandHandler) {
		h.clock = clock
	}
}

// WithIDGenerator sets the id source for new users.
func WithIDGenerator(generate func() (uuid.UUID, error)) Option {
	return func(h *CommandHandler) {
		h.newID = generate
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
		clock: time.Now,
		newID: uuid.NewV7,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle validates the command and stores the user.
// Duplicates fail with reservations.ErrDuplicateUsername or reservations.ErrDuplicateEmail.
func (h CommandHandler) Handle(ctx context.Context, command Command) (reservations.User, shell.HandlerResult, error) {
	id, err := h.newID()
	if err != nil {
		return reservations.User{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	user, err := reservations.BuildUser(id, command.Username, command.Email, h.clock())
	if err != nil {
		return reservations.User{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.store.WithinTx(retryCtx, func(txCtx context.Context, tx reservations.Tx) error {
			return tx.InsertUser(txCtx, user)
		})
	}, h.retryOptions...)

	if err != nil {
		return reservations.User{}, shell.NewErrorResult(retryMetrics), err
	}

	return user, shell.NewSuccessResult(retryMetrics), nil
}
