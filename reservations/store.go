package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reader defines the read operations of a record store.
// Single-record lookups return a NotFoundError when the record does not exist.
type Reader interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (Book, error)
	ListBooks(ctx context.Context, page PageRequest) (Page[Book], error)
	GetUser(ctx context.Context, userID uuid.UUID) (User, error)
	ListUsers(ctx context.Context, page PageRequest) (Page[User], error)
	GetReservation(ctx context.Context, reservationID uuid.UUID) (Reservation, error)
	ListReservations(ctx context.Context, page PageRequest) (Page[Reservation], error)

	// FindActiveReservationsCreatedBefore returns all ACTIVE reservations created strictly before cutoff,
	// oldest first.
	FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (Reservations, error)

	// FindReservationsByUser returns all reservations of the user regardless of status, oldest first.
	FindReservationsByUser(ctx context.Context, userID uuid.UUID) (Reservations, error)
}

// Writer defines the mutating operations of a record store.
// They are only available inside a transaction, see Store.WithinTx.
type Writer interface {
	// InsertBook stores a new book. A duplicate ISBN fails with ErrDuplicateISBN.
	InsertBook(ctx context.Context, book Book) error

	// InsertUser stores a new user. Duplicates fail with ErrDuplicateUsername or ErrDuplicateEmail.
	InsertUser(ctx context.Context, user User) error

	// InsertReservation stores a new reservation together with its book set.
	InsertReservation(ctx context.Context, reservation Reservation) error

	// DecrementAvailableCopies subtracts count if at least count copies are available.
	// It reports false, without error, when the condition did not hold or the book does not exist.
	DecrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error)

	// IncrementAvailableCopies adds count if the result does not exceed the total copies.
	// It reports false, without error, when the condition did not hold or the book does not exist.
	IncrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error)

	// CompareAndSetReservationStatus moves the reservation from expected to next in one atomic step.
	// It reports false, without error, when the current status is not expected or the reservation does not exist.
	CompareAndSetReservationStatus(
		ctx context.Context,
		reservationID uuid.UUID,
		expected Status,
		next Status,
		updatedAt time.Time,
	) (bool, error)
}

// Tx is the transactional view of a store: reads see the transaction's own writes.
type Tx interface {
	Reader
	Writer
}

// TxFunc is the unit of work executed by Store.WithinTx.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is a durable record store.
type Store interface {
	Reader

	// WithinTx runs fn inside one transaction. The transaction is committed when fn returns nil,
	// otherwise it is rolled back and the error of fn is returned.
	WithinTx(ctx context.Context, fn TxFunc) error
}
