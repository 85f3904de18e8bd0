package memengine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// tx implements reservations.Tx. Reads see the transaction's own writes.
type tx struct {
	reader
	clock func() time.Time
}

func (t *tx) InsertBook(ctx context.Context, book reservations.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := t.txn.First(tableBooks, indexISBN, book.ISBN)
	if err != nil {
		return err
	}

	if existing != nil {
		return reservations.ErrDuplicateISBN
	}

	return t.txn.Insert(tableBooks, newBookRow(book))
}

func (t *tx) InsertUser(ctx context.Context, user reservations.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	byName, err := t.txn.First(tableUsers, indexUsername, user.Username)
	if err != nil {
		return err
	}

	if byName != nil {
		return reservations.ErrDuplicateUsername
	}

	byEmail, err := t.txn.First(tableUsers, indexEmail, strings.ToLower(user.Email))
	if err != nil {
		return err
	}

	if byEmail != nil {
		return reservations.ErrDuplicateEmail
	}

	return t.txn.Insert(tableUsers, newUserRow(user))
}

func (t *tx) InsertReservation(ctx context.Context, reservation reservations.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.txn.Insert(tableReservations, newReservationRow(reservation))
}

func (t *tx) DecrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error) {
	return t.adjustAvailableCopies(ctx, bookID, -count)
}

func (t *tx) IncrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error) {
	return t.adjustAvailableCopies(ctx, bookID, count)
}

// adjustAvailableCopies applies delta only if the result stays within 0..TotalCopies.
func (t *tx) adjustAvailableCopies(ctx context.Context, bookID uuid.UUID, delta int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	row, err := t.bookRow(bookID)
	if err != nil {
		if errors.Is(err, reservations.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	book := row.Book
	next := book.AvailableCopies + delta

	if next < 0 || next > book.TotalCopies {
		return false, nil
	}

	book.AvailableCopies = next
	book.UpdatedAt = t.clock()

	if err = t.txn.Insert(tableBooks, newBookRow(book)); err != nil {
		return false, err
	}

	return true, nil
}

func (t *tx) CompareAndSetReservationStatus(
	ctx context.Context,
	reservationID uuid.UUID,
	expected reservations.Status,
	next reservations.Status,
	updatedAt time.Time,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	row, err := t.reservationRow(reservationID)
	if err != nil {
		if errors.Is(err, reservations.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	if row.Reservation.Status != expected {
		return false, nil
	}

	updated := copyReservation(row.Reservation)
	updated.Status = next
	updated.UpdatedAt = updatedAt

	if err = t.txn.Insert(tableReservations, newReservationRow(updated)); err != nil {
		return false, err
	}

	return true, nil
}
