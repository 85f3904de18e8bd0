package reservebooks

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
)

// Store defines the interface needed by the CommandHandler for store operations.
type Store interface {
	WithinTx(ctx context.Context, fn reservations.TxFunc) error
}

// CommandHandler orchestrates the Reserve Books workflow with retry.
// External wrappers handle all observability and caching concerns.
type CommandHandler struct {
	store        Store
	machine      lifecycle.StateMachine
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

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, machine lifecycle.StateMachine, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:   store,
		machine: machine,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the Reserve Books workflow and returns the materialized reservation.
// The books in the result carry their counters as of the commit.
func (h CommandHandler) Handle(
	ctx context.Context,
	command Command,
) (reservations.ReservationResult, shell.HandlerResult, error) {
	if err := Decide(command); err != nil {
		return reservations.ReservationResult{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	var result reservations.ReservationResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		result, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return reservations.ReservationResult{}, shell.NewErrorResult(retryMetrics), err
	}

	return result, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand runs one admission attempt in its own transaction.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (reservations.ReservationResult, error) {
	var result reservations.ReservationResult

	ctx = reservations.WithStrongConsistency(ctx)

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx reservations.Tx) error {
		user, err := tx.GetUser(txCtx, command.UserID)
		if err != nil {
			return err
		}

		for _, bookID := range command.BookIDs {
			if _, err = tx.GetBook(txCtx, bookID); err != nil {
				return err
			}
		}

		reservation, err := h.machine.Create(txCtx, tx, user.ID, command.BookIDs)
		if err != nil {
			return err
		}

		result, err = reservations.Materialize(txCtx, tx, reservation)

		return err
	})

	return result, err
}
