package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
	"github.com/AntonStoeckl/book-reservations-go/reservations/memengine"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
)

func newMachine(t *testing.T, options ...lifecycle.Option) (*memengine.Store, lifecycle.StateMachine) {
	t.Helper()

	store, err := memengine.NewStore()
	require.NoError(t, err)

	ledger, err := inventory.NewLedger()
	require.NoError(t, err)

	options = append([]lifecycle.Option{lifecycle.WithClock(func() time.Time { return fixtures.FixedNow })}, options...)
	machine, err := lifecycle.NewStateMachine(ledger, options...)
	require.NoError(t, err)

	return store, machine
}

func Test_StateMachine_Create_Success(t *testing.T) {
	// setup
	fixedID := uuid.MustParse("0195d5c6-0000-7000-8000-000000000001")
	store, machine := newMachine(t, lifecycle.WithIDGenerator(func() (uuid.UUID, error) { return fixedID, nil }))

	// arrange
	user := fixtures.GivenUser(t, store)
	a := fixtures.GivenBook(t, store, 2)
	b := fixtures.GivenBook(t, store, 1)

	// act
	var created reservations.Reservation
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		var createErr error
		created, createErr = machine.Create(ctx, tx, user.ID, []uuid.UUID{b.ID, a.ID})

		return createErr
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, fixedID, created.ID)
	assert.Equal(t, reservations.StatusActive, created.Status)
	assert.Equal(t, fixtures.FixedNow, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, reservations.SortBookIDs([]uuid.UUID{a.ID, b.ID}), created.BookIDs, "book ids should be stored sorted")
	assert.Equal(t, 1, fixtures.AvailableCopies(t, store, a.ID))
	assert.Equal(t, 0, fixtures.AvailableCopies(t, store, b.ID))

	stored, err := store.GetReservation(context.Background(), fixedID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func Test_StateMachine_Create_InsufficientStock_StoresNothing(t *testing.T) {
	store, machine := newMachine(t)
	user := fixtures.GivenUser(t, store)
	available := fixtures.GivenBook(t, store, 1)
	exhausted := fixtures.GivenBookWithAvailable(t, store, 1, 0)

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		_, createErr := machine.Create(ctx, tx, user.ID, []uuid.UUID{available.ID, exhausted.ID})
		return createErr
	})

	assert.ErrorIs(t, err, reservations.ErrInsufficientStock)
	assert.Equal(t, 1, fixtures.AvailableCopies(t, store, available.ID))

	list, err := store.FindReservationsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "no reservation should be stored for a rejected admission")
}

func Test_StateMachine_Create_InvalidBookSets(t *testing.T) {
	store, machine := newMachine(t)
	user := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 5)

	for name, ids := range map[string][]uuid.UUID{
		"empty":     nil,
		"duplicate": {book.ID, book.ID},
		"too many":  {book.ID, uuid.New(), uuid.New(), uuid.New()},
	} {
		err := store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
			_, createErr := machine.Create(ctx, tx, user.ID, ids)
			return createErr
		})

		assert.ErrorIs(t, err, reservations.ErrInvalidBookSet, name)
	}

	assert.Equal(t, 5, fixtures.AvailableCopies(t, store, book.ID))
}

func Test_StateMachine_CancelAndExpire_ReleaseCopies(t *testing.T) {
	tests := []struct {
		name     string
		expected reservations.Status
		act      func(lifecycle.StateMachine, context.Context, lifecycle.Store, uuid.UUID) (reservations.Reservation, error)
	}{
		{name: "cancel", expected: reservations.StatusCanceled, act: lifecycle.StateMachine.Cancel},
		{name: "expire", expected: reservations.StatusExpired, act: lifecycle.StateMachine.Expire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, machine := newMachine(t)
			user := fixtures.GivenUser(t, store)
			a := fixtures.GivenBook(t, store, 1)
			b := fixtures.GivenBook(t, store, 3)
			reservation := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow.Add(-time.Hour), a.ID, b.ID)

			var updated reservations.Reservation
			err := store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
				var actErr error
				updated, actErr = tt.act(machine, ctx, tx, reservation.ID)

				return actErr
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, updated.Status)
			assert.Equal(t, fixtures.FixedNow, updated.UpdatedAt)
			assert.Equal(t, tt.expected, fixtures.ReservationStatus(t, store, reservation.ID))
			assert.Equal(t, 1, fixtures.AvailableCopies(t, store, a.ID))
			assert.Equal(t, 3, fixtures.AvailableCopies(t, store, b.ID))
		})
	}
}

func Test_StateMachine_TerminalStatesAreFinal(t *testing.T) {
	store, machine := newMachine(t)
	user := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 2)
	reservation := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, book.ID)

	cancel := func() error {
		return store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
			_, err := machine.Cancel(ctx, tx, reservation.ID)
			return err
		})
	}

	expire := func() error {
		return store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
			_, err := machine.Expire(ctx, tx, reservation.ID)
			return err
		})
	}

	require.NoError(t, cancel())

	err := cancel()
	var transitionErr reservations.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr, "a second cancel should be rejected")
	assert.Equal(t, reservations.StatusCanceled, transitionErr.From)

	assert.ErrorIs(t, expire(), reservations.ErrInvalidTransition, "a canceled reservation should not expire")
	assert.Equal(t, 2, fixtures.AvailableCopies(t, store, book.ID), "copies should be released exactly once")
}

func Test_StateMachine_UnknownReservation(t *testing.T) {
	store, machine := newMachine(t)

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		_, cancelErr := machine.Cancel(ctx, tx, uuid.New())
		return cancelErr
	})

	assert.ErrorIs(t, err, reservations.ErrNotFound)
}

func Test_StateMachine_CancelRacingExpire_ReleasesOnce(t *testing.T) {
	store, machine := newMachine(t)
	user := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 1)
	reservation := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, book.ID)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)

	for i, transition := range []func(lifecycle.StateMachine, context.Context, lifecycle.Store, uuid.UUID) (reservations.Reservation, error){
		lifecycle.StateMachine.Cancel,
		lifecycle.StateMachine.Expire,
	} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[i] = store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
				_, err := transition(machine, ctx, tx, reservation.ID)
				return err
			})
		}()
	}

	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		assert.True(t, errors.Is(err, reservations.ErrInvalidTransition), "the loser should see an invalid transition")
	}

	assert.Equal(t, 1, succeeded, "exactly one terminal transition should win")
	assert.Equal(t, 1, fixtures.AvailableCopies(t, store, book.ID), "the copy should be released exactly once")
}

func Test_NewStateMachine_RejectsNilOptions(t *testing.T) {
	ledger, err := inventory.NewLedger()
	require.NoError(t, err)

	_, err = lifecycle.NewStateMachine(ledger, lifecycle.WithClock(nil))
	assert.ErrorIs(t, err, lifecycle.ErrNilClock)

	_, err = lifecycle.NewStateMachine(ledger, lifecycle.WithIDGenerator(nil))
	assert.ErrorIs(t, err, lifecycle.ErrNilIDGenerator)
}
