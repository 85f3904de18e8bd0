package memengine

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

type bookRow struct {
	ID   string
	ISBN string
	Book reservations.Book
}

type userRow struct {
	ID       string
	Username string
	Email    string
	User     reservations.User
}

type reservationRow struct {
	ID          string
	UserID      string
	Status      string
	Reservation reservations.Reservation
}

func newBookRow(book reservations.Book) *bookRow {
	return &bookRow{ID: book.ID.String(), ISBN: book.ISBN, Book: book}
}

func newUserRow(user reservations.User) *userRow {
	return &userRow{ID: user.ID.String(), Username: user.Username, Email: strings.ToLower(user.Email), User: user}
}

func newReservationRow(reservation reservations.Reservation) *reservationRow {
	reservation.BookIDs = slices.Clone(reservation.BookIDs)

	return &reservationRow{
		ID:          reservation.ID.String(),
		UserID:      reservation.UserID.String(),
		Status:      reservation.Status.String(),
		Reservation: reservation,
	}
}

// reader implements reservations.Reader on a go-memdb transaction.
// Rows are never mutated after insert, updates insert a fresh copy.
type reader struct {
	txn *memdb.Txn
}

func (r reader) GetBook(ctx context.Context, bookID uuid.UUID) (reservations.Book, error) {
	if err := ctx.Err(); err != nil {
		return reservations.Book{}, err
	}

	row, err := r.bookRow(bookID)
	if err != nil {
		return reservations.Book{}, err
	}

	return row.Book, nil
}

func (r reader) GetBookByISBN(ctx context.Context, isbn string) (reservations.Book, error) {
	if err := ctx.Err(); err != nil {
		return reservations.Book{}, err
	}

	raw, err := r.txn.First(tableBooks, indexISBN, isbn)
	if err != nil {
		return reservations.Book{}, err
	}

	if raw == nil {
		return reservations.Book{}, reservations.NotFoundError{Entity: reservations.EntityBook, ID: isbn}
	}

	return raw.(*bookRow).Book, nil
}

func (r reader) ListBooks(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.Book], error) {
	if err := ctx.Err(); err != nil {
		return reservations.Page[reservations.Book]{}, err
	}

	all, err := collect(r.txn, tableBooks, indexID, func(row *bookRow) reservations.Book { return row.Book })
	if err != nil {
		return reservations.Page[reservations.Book]{}, err
	}

	return reservations.BuildPage(all, page), nil
}

func (r reader) GetUser(ctx context.Context, userID uuid.UUID) (reservations.User, error) {
	if err := ctx.Err(); err != nil {
		return reservations.User{}, err
	}

	raw, err := r.txn.First(tableUsers, indexID, userID.String())
	if err != nil {
		return reservations.User{}, err
	}

	if raw == nil {
		return reservations.User{}, reservations.NewNotFoundError(reservations.EntityUser, userID)
	}

	return raw.(*userRow).User, nil
}

func (r reader) ListUsers(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.User], error) {
	if err := ctx.Err(); err != nil {
		return reservations.Page[reservations.User]{}, err
	}

	all, err := collect(r.txn, tableUsers, indexID, func(row *userRow) reservations.User { return row.User })
	if err != nil {
		return reservations.Page[reservations.User]{}, err
	}

	return reservations.BuildPage(all, page), nil
}

func (r reader) GetReservation(ctx context.Context, reservationID uuid.UUID) (reservations.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return reservations.Reservation{}, err
	}

	row, err := r.reservationRow(reservationID)
	if err != nil {
		return reservations.Reservation{}, err
	}

	return copyReservation(row.Reservation), nil
}

func (r reader) ListReservations(
	ctx context.Context,
	page reservations.PageRequest,
) (reservations.Page[reservations.Reservation], error) {
	if err := ctx.Err(); err != nil {
		return reservations.Page[reservations.Reservation]{}, err
	}

	all, err := collect(r.txn, tableReservations, indexID, func(row *reservationRow) reservations.Reservation {
		return copyReservation(row.Reservation)
	})
	if err != nil {
		return reservations.Page[reservations.Reservation]{}, err
	}

	return reservations.BuildPage(all, page), nil
}

func (r reader) FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (reservations.Reservations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	active, err := collect(r.txn, tableReservations, indexStatus, func(row *reservationRow) reservations.Reservation {
		return copyReservation(row.Reservation)
	}, reservations.StatusActive.String())
	if err != nil {
		return nil, err
	}

	found := make(reservations.Reservations, 0)

	for _, reservation := range active {
		if reservation.CreatedAt.Before(cutoff) {
			found = append(found, reservation)
		}
	}

	sortOldestFirst(found)

	return found, nil
}

func (r reader) FindReservationsByUser(ctx context.Context, userID uuid.UUID) (reservations.Reservations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := collect(r.txn, tableReservations, indexUserID, func(row *reservationRow) reservations.Reservation {
		return copyReservation(row.Reservation)
	}, userID.String())
	if err != nil {
		return nil, err
	}

	sortOldestFirst(found)

	return found, nil
}

func (r reader) bookRow(bookID uuid.UUID) (*bookRow, error) {
	raw, err := r.txn.First(tableBooks, indexID, bookID.String())
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, reservations.NewNotFoundError(reservations.EntityBook, bookID)
	}

	return raw.(*bookRow), nil
}

func (r reader) reservationRow(reservationID uuid.UUID) (*reservationRow, error) {
	raw, err := r.txn.First(tableReservations, indexID, reservationID.String())
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, reservations.NewNotFoundError(reservations.EntityReservation, reservationID)
	}

	return raw.(*reservationRow), nil
}

// collect iterates an index in key order and maps every row.
func collect[R any, T any](txn *memdb.Txn, table, index string, mapRow func(R) T, args ...any) ([]T, error) {
	iterator, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0)

	for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
		items = append(items, mapRow(raw.(R)))
	}

	return items, nil
}

func copyReservation(reservation reservations.Reservation) reservations.Reservation {
	reservation.BookIDs = slices.Clone(reservation.BookIDs)
	return reservation
}

func sortOldestFirst(list reservations.Reservations) {
	slices.SortStableFunc(list, func(a, b reservations.Reservation) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
