// Package reservationdetails implements the Reservation Details query use case.
package reservationdetails
