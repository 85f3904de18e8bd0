package reservations

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxBooksPerReservation is the upper bound of distinct books a single reservation may hold.
	MaxBooksPerReservation = 3

	// HoldPeriod is how long an active reservation holds its copies before the sweep expires it.
	HoldPeriod = 7 * 24 * time.Hour
)

// Status is the lifecycle state of a Reservation.
type Status string

const (
	// StatusActive is the initial state, the reservation holds one copy of each of its books.
	StatusActive Status = "ACTIVE"

	// StatusCanceled is terminal, reached by an explicit cancel request.
	StatusCanceled Status = "CANCELED"

	// StatusExpired is terminal, reached when the sweep finds the reservation older than the HoldPeriod.
	StatusExpired Status = "EXPIRED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusExpired
}

// CanTransitionTo reports whether the move from s to next is allowed.
// The only legal moves are ACTIVE->CANCELED and ACTIVE->EXPIRED.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && next.IsTerminal()
}

func (s Status) String() string {
	return string(s)
}

// Reservation holds one copy of each of 1 to MaxBooksPerReservation distinct books for one user.
// UserID and BookIDs are set once at creation; only Status and UpdatedAt change afterward.
type Reservation struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"userId"`
	BookIDs   []uuid.UUID `json:"bookIds"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SameAs compares reservations by identity.
func (r Reservation) SameAs(other Reservation) bool {
	return r.ID == other.ID
}

// IsActive reports whether the reservation still holds its copies.
func (r Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// Reservations is a slice of Reservation.
type Reservations = []Reservation

// NormalizeBookSet checks that bookIDs holds 1 to MaxBooksPerReservation distinct ids
// and returns a sorted copy. Ascending order is the lock order used by the ledger.
func NormalizeBookSet(bookIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(bookIDs) < 1 || len(bookIDs) > MaxBooksPerReservation {
		return nil, ErrInvalidBookSet
	}

	sorted := SortBookIDs(bookIDs)

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, ErrInvalidBookSet
		}
	}

	return sorted, nil
}

// SortBookIDs returns a copy of ids in ascending byte order, which matches the ordering of PostgreSQL's uuid type.
func SortBookIDs(ids []uuid.UUID) []uuid.UUID {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	return sorted
}
