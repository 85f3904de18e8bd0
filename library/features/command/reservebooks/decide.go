package reservebooks

import "github.com/AntonStoeckl/book-reservations-go/reservations"

// Decide checks the request shape before any record is loaded.
// Duplicates are left to the state machine, which rejects them with reservations.ErrInvalidBookSet.
func Decide(command Command) error {
	if len(command.BookIDs) < 1 || len(command.BookIDs) > reservations.MaxBooksPerReservation {
		return reservations.ErrLimitExceeded
	}

	return nil
}
