package cancelreservation

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
)

// Store defines the interface needed by the CommandHandler for store operations.
type Store interface {
	WithinTx(ctx context.Context, fn reservations.TxFunc) error
}

// CommandHandler orchestrates the Cancel Reservation workflow with retry.
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

// Handle cancels the reservation and returns it materialized with its released books.
func (h CommandHandler) Handle(
	ctx context.Context,
	command Command,
) (reservations.ReservationResult, shell.HandlerResult, error) {
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

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (reservations.ReservationResult, error) {
	var result reservations.ReservationResult

	ctx = reservations.WithStrongConsistency(ctx)

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx reservations.Tx) error {
		canceled, err := h.machine.Cancel(txCtx, tx, command.ReservationID)
		if err != nil {
			return err
		}

		result, err = reservations.Materialize(txCtx, tx, canceled)

		return err
	})

	var transitionErr reservations.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return reservations.ReservationResult{}, NotActiveError{Transition: transitionErr}
	}

	return result, err
}
