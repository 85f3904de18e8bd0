package reservationsbyuser

import "github.com/AntonStoeckl/book-reservations-go/reservations"

// ReservationsByUser represents the query result: all reservations of one user, oldest first.
type ReservationsByUser struct {
	User         reservations.User               `json:"user"`
	Reservations reservations.ReservationResults `json:"reservations"`
	Count        int                             `json:"count"`
}
