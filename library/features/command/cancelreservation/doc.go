// Package cancelreservation implements the Cancel Reservation use case.
//
// Only ACTIVE reservations can be canceled. Canceling moves the reservation to CANCELED and
// returns one copy of each of its books to the inventory in the same transaction. A reservation
// that is already canceled or expired is rejected with ErrOnlyActiveCanBeCanceled and releases nothing,
// which also decides a race between a user cancel and the expiry sweep: exactly one of them wins.
package cancelreservation
