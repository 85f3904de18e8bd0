package postgresengine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine/internal/adapters"
)

type queryFunc func(ctx context.Context, query string) (adapters.DBRows, error)

// reader implements reservations.Reader on top of a query function,
// which is either the pool (primary or replica) or an open transaction.
type reader struct {
	store *Store
	query queryFunc
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r reader) GetBook(ctx context.Context, bookID uuid.UUID) (reservations.Book, error) {
	sqlQuery, err := buildGetBookQuery(bookID)
	if err != nil {
		return reservations.Book{}, r.store.buildFailed(ctx, err)
	}

	books, err := queryAll(ctx, r, operationGetBook, sqlQuery, scanBook)
	if err != nil {
		return reservations.Book{}, err
	}

	if len(books) == 0 {
		return reservations.Book{}, reservations.NewNotFoundError(reservations.EntityBook, bookID)
	}

	return books[0], nil
}

func (r reader) GetBookByISBN(ctx context.Context, isbn string) (reservations.Book, error) {
	sqlQuery, err := buildGetBookByISBNQuery(isbn)
	if err != nil {
		return reservations.Book{}, r.store.buildFailed(ctx, err)
	}

	books, err := queryAll(ctx, r, operationGetBook, sqlQuery, scanBook)
	if err != nil {
		return reservations.Book{}, err
	}

	if len(books) == 0 {
		return reservations.Book{}, reservations.NotFoundError{Entity: reservations.EntityBook, ID: isbn}
	}

	return books[0], nil
}

func (r reader) ListBooks(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.Book], error) {
	sqlQuery, err := buildListBooksQuery(page)
	if err != nil {
		return reservations.Page[reservations.Book]{}, r.store.buildFailed(ctx, err)
	}

	return listPage(ctx, r, operationListBooks, tableBooks, sqlQuery, page, scanBook)
}

func (r reader) GetUser(ctx context.Context, userID uuid.UUID) (reservations.User, error) {
	sqlQuery, err := buildGetUserQuery(userID)
	if err != nil {
		return reservations.User{}, r.store.buildFailed(ctx, err)
	}

	users, err := queryAll(ctx, r, operationGetUser, sqlQuery, scanUser)
	if err != nil {
		return reservations.User{}, err
	}

	if len(users) == 0 {
		return reservations.User{}, reservations.NewNotFoundError(reservations.EntityUser, userID)
	}

	return users[0], nil
}

func (r reader) ListUsers(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.User], error) {
	sqlQuery, err := buildListUsersQuery(page)
	if err != nil {
		return reservations.Page[reservations.User]{}, r.store.buildFailed(ctx, err)
	}

	return listPage(ctx, r, operationListUsers, tableUsers, sqlQuery, page, scanUser)
}

func (r reader) GetReservation(ctx context.Context, reservationID uuid.UUID) (reservations.Reservation, error) {
	sqlQuery, err := buildGetReservationQuery(reservationID)
	if err != nil {
		return reservations.Reservation{}, r.store.buildFailed(ctx, err)
	}

	found, err := queryAll(ctx, r, operationGetReservation, sqlQuery, scanReservation)
	if err != nil {
		return reservations.Reservation{}, err
	}

	if len(found) == 0 {
		return reservations.Reservation{}, reservations.NewNotFoundError(reservations.EntityReservation, reservationID)
	}

	return found[0], nil
}

func (r reader) ListReservations(
	ctx context.Context,
	page reservations.PageRequest,
) (reservations.Page[reservations.Reservation], error) {
	sqlQuery, err := buildListReservationsQuery(page)
	if err != nil {
		return reservations.Page[reservations.Reservation]{}, r.store.buildFailed(ctx, err)
	}

	return listPage(ctx, r, operationListReservations, tableReservations, sqlQuery, page, scanReservation)
}

func (r reader) FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (reservations.Reservations, error) {
	sqlQuery, err := buildActiveCreatedBeforeQuery(cutoff)
	if err != nil {
		return nil, r.store.buildFailed(ctx, err)
	}

	return queryAll(ctx, r, operationFindExpirable, sqlQuery, scanReservation)
}

func (r reader) FindReservationsByUser(ctx context.Context, userID uuid.UUID) (reservations.Reservations, error) {
	sqlQuery, err := buildReservationsByUserQuery(userID)
	if err != nil {
		return nil, r.store.buildFailed(ctx, err)
	}

	return queryAll(ctx, r, operationFindByUser, sqlQuery, scanReservation)
}

// queryAll runs sqlQuery and scans every row. It records duration and error metrics for operation.
func queryAll[T any](
	ctx context.Context,
	r reader,
	operation string,
	sqlQuery sqlQueryString,
	scan func(rowScanner) (T, error),
) ([]T, error) {
	start := time.Now()
	rows, queryErr := r.query(ctx, sqlQuery)
	duration := time.Since(start)
	r.store.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if queryErr != nil {
		r.store.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		r.store.recordErrorMetrics(ctx, operation)

		return nil, errors.Join(reservations.ErrQueryingFailed, classify(queryErr))
	}
	defer r.store.closeRows(ctx, rows)

	items := make([]T, 0)

	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			r.store.logError(ctx, logMsgScanRowFailed, scanErr)
			r.store.recordErrorMetrics(ctx, operation)

			return nil, errors.Join(reservations.ErrScanningDBRowFailed, scanErr)
		}

		items = append(items, item)
	}

	if iterErr := rows.Err(); iterErr != nil {
		r.store.logError(ctx, logMsgDBQueryFailed, iterErr, logAttrQuery, sqlQuery)
		r.store.recordErrorMetrics(ctx, operation)

		return nil, errors.Join(reservations.ErrQueryingFailed, classify(iterErr))
	}

	r.store.recordDurationMetrics(ctx, MetricQueryDuration, duration, operation, statusSuccess)

	return items, nil
}

func listPage[T any](
	ctx context.Context,
	r reader,
	operation string,
	table string,
	sqlQuery sqlQueryString,
	page reservations.PageRequest,
	scan func(rowScanner) (T, error),
) (reservations.Page[T], error) {
	countQuery, err := countRows(table)
	if err != nil {
		return reservations.Page[T]{}, r.store.buildFailed(ctx, err)
	}

	counts, err := queryAll(ctx, r, operation, countQuery, scanCount)
	if err != nil {
		return reservations.Page[T]{}, err
	}

	items, err := queryAll(ctx, r, operation, sqlQuery, scan)
	if err != nil {
		return reservations.Page[T]{}, err
	}

	return reservations.Page[T]{
		Items:      items,
		Number:     page.Number,
		Size:       page.Size,
		TotalItems: int(counts[0]),
	}, nil
}

func scanCount(row rowScanner) (int64, error) {
	var count int64
	err := row.Scan(&count)

	return count, err
}

func scanBook(row rowScanner) (reservations.Book, error) {
	var (
		book reservations.Book
		id   string
	)

	if err := row.Scan(
		&id,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
	); err != nil {
		return reservations.Book{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return reservations.Book{}, err
	}

	book.ID = parsed
	book.CreatedAt = book.CreatedAt.UTC()
	book.UpdatedAt = book.UpdatedAt.UTC()

	return book, nil
}

func scanUser(row rowScanner) (reservations.User, error) {
	var (
		user reservations.User
		id   string
	)

	if err := row.Scan(&id, &user.Username, &user.Email, &user.CreatedAt); err != nil {
		return reservations.User{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return reservations.User{}, err
	}

	user.ID = parsed
	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}

func scanReservation(row rowScanner) (reservations.Reservation, error) {
	var (
		reservation reservations.Reservation
		id          string
		userID      string
		status      string
		bookIDs     string
	)

	if err := row.Scan(&id, &userID, &status, &reservation.CreatedAt, &reservation.UpdatedAt, &bookIDs); err != nil {
		return reservations.Reservation{}, err
	}

	var err error

	if reservation.ID, err = uuid.Parse(id); err != nil {
		return reservations.Reservation{}, err
	}

	if reservation.UserID, err = uuid.Parse(userID); err != nil {
		return reservations.Reservation{}, err
	}

	reservation.BookIDs = make([]uuid.UUID, 0, reservations.MaxBooksPerReservation)

	for _, raw := range strings.Split(bookIDs, ",") {
		if raw == "" {
			continue
		}

		bookID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return reservations.Reservation{}, parseErr
		}

		reservation.BookIDs = append(reservation.BookIDs, bookID)
	}

	reservation.Status = reservations.Status(status)
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()

	return reservation, nil
}
