package cancelreservation

import (
	"errors"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// ErrOnlyActiveCanBeCanceled is returned when the reservation is no longer ACTIVE.
var ErrOnlyActiveCanBeCanceled = errors.New("only active reservations can be canceled")

// NotActiveError carries the rejected transition behind the user-facing message.
// It matches ErrOnlyActiveCanBeCanceled and reservations.ErrInvalidTransition.
type NotActiveError struct {
	Transition reservations.InvalidTransitionError
}

func (e NotActiveError) Error() string {
	return ErrOnlyActiveCanBeCanceled.Error()
}

func (e NotActiveError) Unwrap() []error {
	return []error{ErrOnlyActiveCanBeCanceled, e.Transition}
}
