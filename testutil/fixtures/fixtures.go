package fixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// FixedNow is the reference time used by tests that need a stable clock.
var FixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var sequence atomic.Uint64

// NextISBN returns a valid ISBN that is unique within the test binary.
func NextISBN() string {
	return fmt.Sprintf("978%010d", sequence.Add(1))
}

// NextUsername returns a valid username that is unique within the test binary.
func NextUsername() string {
	return fmt.Sprintf("reader%d", sequence.Add(1))
}

// BuildBook builds a valid book with all copies available.
func BuildBook(t testing.TB, totalCopies int) reservations.Book {
	t.Helper()

	isbn := NextISBN()

	book, err := reservations.BuildBook(uuid.New(), "Title "+isbn, "Author "+isbn, isbn, totalCopies, FixedNow)
	require.NoError(t, err)

	return book
}

// BuildUser builds a valid user.
func BuildUser(t testing.TB) reservations.User {
	t.Helper()

	username := NextUsername()

	user, err := reservations.BuildUser(uuid.New(), username, username+"@example.com", FixedNow)
	require.NoError(t, err)

	return user
}

// GivenBook stores a new book with totalCopies copies, all available.
func GivenBook(t testing.TB, store reservations.Store, totalCopies int) reservations.Book {
	t.Helper()

	return GivenBookWithAvailable(t, store, totalCopies, totalCopies)
}

// GivenBookWithAvailable stores a new book whose available copies are already reduced to available.
func GivenBookWithAvailable(t testing.TB, store reservations.Store, totalCopies, available int) reservations.Book {
	t.Helper()

	book := BuildBook(t, totalCopies)

	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		if err := tx.InsertBook(ctx, book); err != nil {
			return err
		}

		if taken := totalCopies - available; taken > 0 {
			applied, err := tx.DecrementAvailableCopies(ctx, book.ID, taken)
			require.True(t, applied, "fixture should reduce the available copies")

			return err
		}

		return nil
	}))

	return reloadBook(t, store, book.ID)
}

// GivenUser stores a new user.
func GivenUser(t testing.TB, store reservations.Store) reservations.User {
	t.Helper()

	user := BuildUser(t)

	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertUser(ctx, user)
	}))

	return user
}

// GivenActiveReservation stores an ACTIVE reservation created at createdAt and takes one copy of each book,
// exactly like an admitted reservation would have.
func GivenActiveReservation(
	t testing.TB,
	store reservations.Store,
	userID uuid.UUID,
	createdAt time.Time,
	bookIDs ...uuid.UUID,
) reservations.Reservation {
	t.Helper()

	reservation := reservations.Reservation{
		ID:        uuid.New(),
		UserID:    userID,
		BookIDs:   reservations.SortBookIDs(bookIDs),
		Status:    reservations.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		for _, bookID := range reservation.BookIDs {
			applied, err := tx.DecrementAvailableCopies(ctx, bookID, 1)
			if err != nil {
				return err
			}

			require.True(t, applied, "fixture should find a copy to take")
		}

		return tx.InsertReservation(ctx, reservation)
	}))

	return reservation
}

// AvailableCopies reads the current available copies of a book.
func AvailableCopies(t testing.TB, store reservations.Reader, bookID uuid.UUID) int {
	t.Helper()

	return reloadBook(t, store, bookID).AvailableCopies
}

// ReservationStatus reads the current status of a reservation.
func ReservationStatus(t testing.TB, store reservations.Reader, reservationID uuid.UUID) reservations.Status {
	t.Helper()

	reservation, err := store.GetReservation(context.Background(), reservationID)
	require.NoError(t, err)

	return reservation.Status
}

func reloadBook(t testing.TB, store reservations.Reader, bookID uuid.UUID) reservations.Book {
	t.Helper()

	book, err := store.GetBook(context.Background(), bookID)
	require.NoError(t, err)

	return book
}
