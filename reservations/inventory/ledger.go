package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	logMsgReserveRejected     = "inventory reserve rejected"
	logMsgReserveManyRejected = "inventory reserve many rejected, compensating prior reservations"
	logMsgCompensationFailed  = "inventory compensating release failed"
	logMsgOverRelease         = "inventory over-release detected, counter left untouched"
	logAttrBookID             = "book_id"
	logAttrCount              = "count"
	logAttrError              = "error"
	logAttrCompensated        = "compensated"
	spanNameReserveMany       = "inventory.reserve_many"
	spanNameRelease           = "inventory.release"
	spanAttrBookCount         = "book_count"
	spanAttrBookID            = "book_id"
	statusSuccess             = "success"
	statusRejected            = "rejected"
	statusError               = "error"
	labelStatus               = "status"

	// MetricReserve counts reserve attempts by status (success, rejected, error).
	MetricReserve = "inventory_reserve_total"

	// MetricRelease counts release attempts by status (success, error).
	MetricRelease = "inventory_release_total"

	// MetricOverRelease counts detected over-releases. Any increase must alert.
	MetricOverRelease = "inventory_over_release_total"
)

// Counters is the transactional store view the Ledger mutates.
// reservations.Tx satisfies it.
type Counters interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (reservations.Book, error)
	DecrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error)
	IncrementAvailableCopies(ctx context.Context, bookID uuid.UUID, count int) (bool, error)
}

// Ledger owns the per-book available copy counters.
// Every mutation is a conditional update executed by the store, never a read-modify-write,
// so concurrent callers on the same book are linearized by the store.
type Ledger struct {
	logger           reservations.Logger
	contextualLogger reservations.ContextualLogger
	metricsCollector reservations.MetricsCollector
	tracingCollector reservations.TracingCollector
}

// NewLedger creates a Ledger with optional observability.
func NewLedger(options ...Option) (Ledger, error) {
	ledger := Ledger{}

	for _, option := range options {
		if err := option(&ledger); err != nil {
			return Ledger{}, err
		}
	}

	return ledger, nil
}

// Reserve takes count copies of the book if at least count are available.
//
// It fails with a reservations.NotFoundError if the book does not exist and with a
// reservations.InsufficientStockError if fewer than count copies are available.
// A rejected reserve is final, retrying is a caller policy.
func (l Ledger) Reserve(ctx context.Context, counters Counters, bookID uuid.UUID, count int) error {
	if count < 1 {
		return reservations.ErrInvalidCopyCount
	}

	applied, err := counters.DecrementAvailableCopies(ctx, bookID, count)
	if err != nil {
		l.countReserve(ctx, statusError)
		return err
	}

	if applied {
		l.countReserve(ctx, statusSuccess)
		return nil
	}

	l.countReserve(ctx, statusRejected)

	book, err := counters.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	l.logInfo(ctx, logMsgReserveRejected, logAttrBookID, bookID.String(), logAttrCount, count)

	return reservations.InsufficientStockError{BookID: book.ID, Title: book.Title}
}

// Release returns count copies of the book.
//
// It fails with reservations.ErrOverRelease if available copies would exceed total copies.
// That means a reservation was released twice, which the state machine makes unreachable,
// so it is logged at error level and counted instead of being corrected.
func (l Ledger) Release(ctx context.Context, counters Counters, bookID uuid.UUID, count int) error {
	if count < 1 {
		return reservations.ErrInvalidCopyCount
	}

	ctx, span := l.startSpan(ctx, spanNameRelease, map[string]string{spanAttrBookID: bookID.String()})

	applied, err := counters.IncrementAvailableCopies(ctx, bookID, count)
	if err != nil {
		l.countRelease(ctx, statusError)
		l.finishSpan(span, statusError)
		return err
	}

	if applied {
		l.countRelease(ctx, statusSuccess)
		l.finishSpan(span, statusSuccess)
		return nil
	}

	l.countRelease(ctx, statusError)
	l.finishSpan(span, statusError)

	if _, getErr := counters.GetBook(ctx, bookID); getErr != nil {
		return getErr
	}

	l.logError(ctx, logMsgOverRelease, logAttrBookID, bookID.String(), logAttrCount, count)
	reservations.IncrementCounter(ctx, l.metricsCollector, MetricOverRelease, nil)

	return errors.Join(reservations.ErrOverRelease, fmt.Errorf("book %s, count %d", bookID, count))
}

// ReserveMany takes one copy of each book, all or nothing.
//
// The ids must be distinct. They are reserved in ascending order so that two calls with
// overlapping sets always lock rows in the same order. If any book cannot be reserved,
// every copy taken by this call is released again and the error of the first failing book is returned.
func (l Ledger) ReserveMany(ctx context.Context, counters Counters, bookIDs []uuid.UUID) error {
	if len(bookIDs) == 0 {
		return reservations.ErrInvalidBookSet
	}

	ordered := reservations.SortBookIDs(bookIDs)
	for i := 1; i < len(ordered); i++ {
		if ordered[i] == ordered[i-1] {
			return reservations.ErrInvalidBookSet
		}
	}

	ctx, span := l.startSpan(ctx, spanNameReserveMany, map[string]string{spanAttrBookCount: strconv.Itoa(len(ordered))})

	reserved := make([]uuid.UUID, 0, len(ordered))

	for _, bookID := range ordered {
		if err := l.Reserve(ctx, counters, bookID, 1); err != nil {
			l.logInfo(ctx, logMsgReserveManyRejected, logAttrBookID, bookID.String(), logAttrCompensated, len(reserved))
			l.finishSpan(span, statusRejected)

			if compensateErr := l.compensate(ctx, counters, reserved); compensateErr != nil {
				return errors.Join(err, compensateErr)
			}

			return err
		}

		reserved = append(reserved, bookID)
	}

	l.finishSpan(span, statusSuccess)

	return nil
}

// compensate releases the given books in reverse order and collects every failure.
func (l Ledger) compensate(ctx context.Context, counters Counters, reserved []uuid.UUID) error {
	var errs []error

	for _, bookID := range slices.Backward(reserved) {
		if err := l.Release(ctx, counters, bookID, 1); err != nil {
			l.logError(ctx, logMsgCompensationFailed, logAttrBookID, bookID.String(), logAttrError, err.Error())
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
