package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine/internal/adapters"
)

// tx implements reservations.Tx on an open database transaction.
type tx struct {
	reader
	exec adapters.DBExecutor
}

func (t *tx) InsertBook(ctx context.Context, book reservations.Book) error {
	sqlQuery, err := buildInsertBookQuery(book)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.execStatement(ctx, operationInsertBook, sqlQuery)

	return err
}

func (t *tx) InsertUser(ctx context.Context, user reservations.User) error {
	sqlQuery, err := buildInsertUserQuery(user)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.execStatement(ctx, operationInsertUser, sqlQuery)

	return err
}

func (t *tx) InsertReservation(ctx context.Context, reservation reservations.Reservation) error {
	if len(reservation.BookIDs) == 0 {
		return reservations.ErrInvalidBookSet
	}

	sqlQuery, err := buildInsertReservationQuery(reservation)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	if _, err = t.execStatement(ctx, operationInsertReservation, sqlQuery); err != nil {
		return err
	}

	booksQuery, err := buildInsertReservationBooksQuery(reservation)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.execStatement(ctx, operationInsertReservation, booksQuery)

	return err
}

func (t *tx) DecrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error) {
	sqlQuery, err := buildDecrementQuery(bookID, count, t.store.clock())
	if err != nil {
		return false, t.store.buildFailed(ctx, err)
	}

	rowsAffected, err := t.execStatement(ctx, operationDecrement, sqlQuery)
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (t *tx) IncrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error) {
	sqlQuery, err := buildIncrementQuery(bookID, count, t.store.clock())
	if err != nil {
		return false, t.store.buildFailed(ctx, err)
	}

	rowsAffected, err := t.execStatement(ctx, operationIncrement, sqlQuery)
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (t *tx) CompareAndSetReservationStatus(
	ctx context.Context,
	reservationID uuid.UUID,
	expected reservations.Status,
	next reservations.Status,
	updatedAt time.Time,
) (bool, error) {
	sqlQuery, err := buildCompareAndSetStatusQuery(reservationID, expected, next, updatedAt)
	if err != nil {
		return false, t.store.buildFailed(ctx, err)
	}

	rowsAffected, err := t.execStatement(ctx, operationCompareAndSet, sqlQuery)
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// execStatement runs a write and returns the number of affected rows.
// Unique violations are mapped to the duplicate sentinels, lock conflicts to ErrTransientFailure.
func (t *tx) execStatement(ctx context.Context, operation string, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()
	result, execErr := t.exec.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	t.store.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if execErr != nil {
		if duplicate := duplicateError(execErr); duplicate != nil {
			return 0, duplicate
		}

		t.store.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		t.store.recordErrorMetrics(ctx, operation)

		return 0, errors.Join(reservations.ErrExecFailed, classify(execErr))
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		t.store.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		t.store.recordErrorMetrics(ctx, operation)

		return 0, errors.Join(reservations.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	t.store.recordDurationMetrics(ctx, MetricQueryDuration, duration, operation, statusSuccess)

	return rowsAffected, nil
}
