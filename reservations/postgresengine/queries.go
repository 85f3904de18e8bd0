package postgresengine

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	dialectPostgres      = "postgres"
	tableBooks           = "books"
	tableUsers           = "users"
	tableReservations    = "reservations"
	tableReservationBook = "reservation_books"
	aliasReservation     = "r"
	colID                = "id"
	colTitle             = "title"
	colAuthor            = "author"
	colISBN              = "isbn"
	colTotalCopies       = "total_copies"
	colAvailableCopies   = "available_copies"
	colCreatedAt         = "created_at"
	colUpdatedAt         = "updated_at"
	colUsername          = "username"
	colEmail             = "email"
	colUserID            = "user_id"
	colStatus            = "status"
	colReservationID     = "reservation_id"
	colBookID            = "book_id"
	castText             = "TEXT"

	// bookIDsSubquery aggregates the book set of the reservation aliased as r, in uuid order.
	bookIDsSubquery = `(SELECT COALESCE(string_agg(rb.book_id::text, ',' ORDER BY rb.book_id), '') ` +
		`FROM reservation_books rb WHERE rb.reservation_id = r.id)`
)

type sqlQueryString = string

func dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func toSQL(builder interface {
	ToSQL() (string, []any, error)
}) (sqlQueryString, error) {
	sqlQuery, _, err := builder.ToSQL()
	if err != nil {
		return "", errors.Join(reservations.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

func selectBooks() *goqu.SelectDataset {
	return dialect().
		From(tableBooks).
		Select(
			goqu.Cast(goqu.C(colID), castText),
			goqu.C(colTitle),
			goqu.C(colAuthor),
			goqu.C(colISBN),
			goqu.C(colTotalCopies),
			goqu.C(colAvailableCopies),
			goqu.C(colCreatedAt),
			goqu.C(colUpdatedAt),
		)
}

func selectUsers() *goqu.SelectDataset {
	return dialect().
		From(tableUsers).
		Select(
			goqu.Cast(goqu.C(colID), castText),
			goqu.C(colUsername),
			goqu.C(colEmail),
			goqu.C(colCreatedAt),
		)
}

func selectReservations() *goqu.SelectDataset {
	return dialect().
		From(goqu.T(tableReservations).As(aliasReservation)).
		Select(
			goqu.Cast(goqu.T(aliasReservation).Col(colID), castText),
			goqu.Cast(goqu.T(aliasReservation).Col(colUserID), castText),
			goqu.T(aliasReservation).Col(colStatus),
			goqu.T(aliasReservation).Col(colCreatedAt),
			goqu.T(aliasReservation).Col(colUpdatedAt),
			goqu.L(bookIDsSubquery),
		)
}

func reservationCol(col string) exp.IdentifierExpression {
	return goqu.T(aliasReservation).Col(col)
}

func countRows(table string) (sqlQueryString, error) {
	return toSQL(dialect().From(table).Select(goqu.COUNT(goqu.Star())))
}

func paged(stmt *goqu.SelectDataset, orderCol exp.IdentifierExpression, page reservations.PageRequest) *goqu.SelectDataset {
	return stmt.
		Order(orderCol.Asc()).
		Limit(uint(page.Size)).    //nolint:gosec // validated by BuildPageRequest
		Offset(uint(page.Offset())) //nolint:gosec // validated by BuildPageRequest
}

func buildGetBookQuery(bookID uuid.UUID) (sqlQueryString, error) {
	return toSQL(selectBooks().Where(goqu.C(colID).Eq(bookID.String())))
}

func buildGetBookByISBNQuery(isbn string) (sqlQueryString, error) {
	return toSQL(selectBooks().Where(goqu.C(colISBN).Eq(isbn)))
}

func buildListBooksQuery(page reservations.PageRequest) (sqlQueryString, error) {
	return toSQL(paged(selectBooks(), goqu.C(colID), page))
}

func buildGetUserQuery(userID uuid.UUID) (sqlQueryString, error) {
	return toSQL(selectUsers().Where(goqu.C(colID).Eq(userID.String())))
}

func buildListUsersQuery(page reservations.PageRequest) (sqlQueryString, error) {
	return toSQL(paged(selectUsers(), goqu.C(colID), page))
}

func buildGetReservationQuery(reservationID uuid.UUID) (sqlQueryString, error) {
	return toSQL(selectReservations().Where(reservationCol(colID).Eq(reservationID.String())))
}

func buildListReservationsQuery(page reservations.PageRequest) (sqlQueryString, error) {
	return toSQL(paged(selectReservations(), reservationCol(colID), page))
}

func buildActiveCreatedBeforeQuery(cutoff time.Time) (sqlQueryString, error) {
	return toSQL(selectReservations().
		Where(
			reservationCol(colStatus).Eq(reservations.StatusActive.String()),
			reservationCol(colCreatedAt).Lt(cutoff.UTC()),
		).
		Order(reservationCol(colCreatedAt).Asc(), reservationCol(colID).Asc()))
}

func buildReservationsByUserQuery(userID uuid.UUID) (sqlQueryString, error) {
	return toSQL(selectReservations().
		Where(reservationCol(colUserID).Eq(userID.String())).
		Order(reservationCol(colCreatedAt).Asc(), reservationCol(colID).Asc()))
}

func buildInsertBookQuery(book reservations.Book) (sqlQueryString, error) {
	return toSQL(dialect().Insert(tableBooks).Rows(goqu.Record{
		colID:              book.ID.String(),
		colTitle:           book.Title,
		colAuthor:          book.Author,
		colISBN:            book.ISBN,
		colTotalCopies:     book.TotalCopies,
		colAvailableCopies: book.AvailableCopies,
		colCreatedAt:       book.CreatedAt.UTC(),
		colUpdatedAt:       book.UpdatedAt.UTC(),
	}))
}

func buildInsertUserQuery(user reservations.User) (sqlQueryString, error) {
	return toSQL(dialect().Insert(tableUsers).Rows(goqu.Record{
		colID:        user.ID.String(),
		colUsername:  user.Username,
		colEmail:     user.Email,
		colCreatedAt: user.CreatedAt.UTC(),
	}))
}

func buildInsertReservationQuery(reservation reservations.Reservation) (sqlQueryString, error) {
	return toSQL(dialect().Insert(tableReservations).Rows(goqu.Record{
		colID:        reservation.ID.String(),
		colUserID:    reservation.UserID.String(),
		colStatus:    reservation.Status.String(),
		colCreatedAt: reservation.CreatedAt.UTC(),
		colUpdatedAt: reservation.UpdatedAt.UTC(),
	}))
}

func buildInsertReservationBooksQuery(reservation reservations.Reservation) (sqlQueryString, error) {
	rows := make([]any, 0, len(reservation.BookIDs))

	for _, bookID := range reservation.BookIDs {
		rows = append(rows, goqu.Record{
			colReservationID: reservation.ID.String(),
			colBookID:        bookID.String(),
		})
	}

	return toSQL(dialect().Insert(tableReservationBook).Rows(rows...))
}

// buildDecrementQuery subtracts count only where at least count copies are available.
func buildDecrementQuery(bookID uuid.UUID, count int, updatedAt time.Time) (sqlQueryString, error) {
	return toSQL(dialect().Update(tableBooks).
		Set(goqu.Record{
			colAvailableCopies: goqu.L("? - ?", goqu.C(colAvailableCopies), count),
			colUpdatedAt:       updatedAt.UTC(),
		}).
		Where(
			goqu.C(colID).Eq(bookID.String()),
			goqu.C(colAvailableCopies).Gte(count),
		))
}

// buildIncrementQuery adds count only where the result stays within total copies.
func buildIncrementQuery(bookID uuid.UUID, count int, updatedAt time.Time) (sqlQueryString, error) {
	return toSQL(dialect().Update(tableBooks).
		Set(goqu.Record{
			colAvailableCopies: goqu.L("? + ?", goqu.C(colAvailableCopies), count),
			colUpdatedAt:       updatedAt.UTC(),
		}).
		Where(
			goqu.C(colID).Eq(bookID.String()),
			goqu.L("? + ? <= ?", goqu.C(colAvailableCopies), count, goqu.C(colTotalCopies)),
		))
}

func buildCompareAndSetStatusQuery(
	reservationID uuid.UUID,
	expected reservations.Status,
	next reservations.Status,
	updatedAt time.Time,
) (sqlQueryString, error) {
	return toSQL(dialect().Update(tableReservations).
		Set(goqu.Record{
			colStatus:    next.String(),
			colUpdatedAt: updatedAt.UTC(),
		}).
		Where(
			goqu.C(colID).Eq(reservationID.String()),
			goqu.C(colStatus).Eq(expected.String()),
		))
}
