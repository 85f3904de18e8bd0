package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
)

const (
	logMsgCreated        = "reservation created"
	logMsgTransitioned   = "reservation transitioned"
	logAttrReservationID = "reservation_id"
	logAttrUserID        = "user_id"
	logAttrBookCount     = "book_count"
	logAttrFrom          = "from"
	logAttrTo            = "to"
)

// Store is the transactional store view the StateMachine works on.
// reservations.Tx satisfies it.
type Store interface {
	inventory.Counters
	GetReservation(ctx context.Context, reservationID uuid.UUID) (reservations.Reservation, error)
	InsertReservation(ctx context.Context, reservation reservations.Reservation) error
	CompareAndSetReservationStatus(
		ctx context.Context,
		reservationID uuid.UUID,
		expected reservations.Status,
		next reservations.Status,
		updatedAt time.Time,
	) (bool, error)
}

// StateMachine owns reservation status transitions and couples each of them with the matching ledger call.
// It must be called inside a store transaction so that the status change and the counter change commit together.
type StateMachine struct {
	ledger           inventory.Ledger
	clock            func() time.Time
	newID            func() (uuid.UUID, error)
	logger           reservations.Logger
	contextualLogger reservations.ContextualLogger
}

// NewStateMachine creates a StateMachine that reserves and releases copies through ledger.
func NewStateMachine(ledger inventory.Ledger, options ...Option) (StateMachine, error) {
	machine := StateMachine{
		ledger: ledger,
		clock:  time.Now,
		newID:  uuid.NewV7,
	}

	for _, option := range options {
		if err := option(&machine); err != nil {
			return StateMachine{}, err
		}
	}

	return machine, nil
}

// Create reserves one copy of every book and stores a new ACTIVE reservation.
// Nothing is stored when the ledger rejects any of the books.
func (m StateMachine) Create(
	ctx context.Context,
	store Store,
	userID uuid.UUID,
	bookIDs []uuid.UUID,
) (reservations.Reservation, error) {
	normalized, err := reservations.NormalizeBookSet(bookIDs)
	if err != nil {
		return reservations.Reservation{}, err
	}

	if err = m.ledger.ReserveMany(ctx, store, normalized); err != nil {
		return reservations.Reservation{}, err
	}

	id, err := m.newID()
	if err != nil {
		return reservations.Reservation{}, err
	}

	now := m.clock()
	reservation := reservations.Reservation{
		ID:        id,
		UserID:    userID,
		BookIDs:   normalized,
		Status:    reservations.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = store.InsertReservation(ctx, reservation); err != nil {
		return reservations.Reservation{}, err
	}

	m.logInfo(ctx, logMsgCreated,
		logAttrReservationID, id.String(),
		logAttrUserID, userID.String(),
		logAttrBookCount, len(normalized),
	)

	return reservation, nil
}

// Cancel moves an ACTIVE reservation to CANCELED and releases its copies.
func (m StateMachine) Cancel(ctx context.Context, store Store, reservationID uuid.UUID) (reservations.Reservation, error) {
	return m.transition(ctx, store, reservationID, reservations.StatusCanceled)
}

// Expire moves an ACTIVE reservation to EXPIRED and releases its copies.
func (m StateMachine) Expire(ctx context.Context, store Store, reservationID uuid.UUID) (reservations.Reservation, error) {
	return m.transition(ctx, store, reservationID, reservations.StatusExpired)
}

func (m StateMachine) transition(
	ctx context.Context,
	store Store,
	reservationID uuid.UUID,
	target reservations.Status,
) (reservations.Reservation, error) {
	reservation, err := store.GetReservation(ctx, reservationID)
	if err != nil {
		return reservations.Reservation{}, err
	}

	if !reservation.Status.CanTransitionTo(target) {
		return reservations.Reservation{}, reservations.InvalidTransitionError{
			ReservationID: reservationID,
			From:          reservation.Status,
			To:            target,
		}
	}

	now := m.clock()

	applied, err := store.CompareAndSetReservationStatus(ctx, reservationID, reservation.Status, target, now)
	if err != nil {
		return reservations.Reservation{}, err
	}

	if !applied {
		// a concurrent transition won, its status is not known here
		return reservations.Reservation{}, reservations.InvalidTransitionError{
			ReservationID: reservationID,
			From:          reservation.Status,
			To:            target,
		}
	}

	for _, bookID := range reservation.BookIDs {
		if err = m.ledger.Release(ctx, store, bookID, 1); err != nil {
			return reservations.Reservation{}, err
		}
	}

	m.logInfo(ctx, logMsgTransitioned,
		logAttrReservationID, reservationID.String(),
		logAttrFrom, reservation.Status.String(),
		logAttrTo, target.String(),
	)

	reservation.Status = target
	reservation.UpdatedAt = now

	return reservation, nil
}

func (m StateMachine) logInfo(ctx context.Context, msg string, args ...any) {
	if m.contextualLogger != nil {
		m.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}
