package lifecycle_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
	"github.com/AntonStoeckl/book-reservations-go/reservations/memengine"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
)

// conservationWorld drives random reserve, cancel and sweep operations against one store.
type conservationWorld struct {
	store   *memengine.Store
	machine lifecycle.StateMachine
	users   []uuid.UUID
	books   []reservations.Book

	mu      sync.Mutex
	created []uuid.UUID
}

func newConservationWorld(t *testing.T) *conservationWorld {
	t.Helper()

	store, machine := newMachine(t)
	w := &conservationWorld{store: store, machine: machine}

	for range 4 {
		w.users = append(w.users, fixtures.GivenUser(t, store).ID)
	}

	for _, copies := range []int{1, 2, 3, 1, 5} {
		w.books = append(w.books, fixtures.GivenBook(t, store, copies))
	}

	return w
}

func (w *conservationWorld) reserve(rng *rand.Rand) error {
	count := 1 + rng.IntN(3)
	bookIDs := make([]uuid.UUID, 0, count)

	for _, i := range rng.Perm(len(w.books))[:count] {
		bookIDs = append(bookIDs, w.books[i].ID)
	}

	userID := w.users[rng.IntN(len(w.users))]

	var created reservations.Reservation
	err := w.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		var createErr error
		created, createErr = w.machine.Create(ctx, tx, userID, bookIDs)

		return createErr
	})

	if err == nil {
		w.mu.Lock()
		w.created = append(w.created, created.ID)
		w.mu.Unlock()
	}

	if errors.Is(err, reservations.ErrInsufficientStock) {
		return nil
	}

	return err
}

func (w *conservationWorld) cancel(rng *rand.Rand) error {
	w.mu.Lock()
	if len(w.created) == 0 {
		w.mu.Unlock()
		return nil
	}
	reservationID := w.created[rng.IntN(len(w.created))]
	w.mu.Unlock()

	err := w.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		_, cancelErr := w.machine.Cancel(ctx, tx, reservationID)
		return cancelErr
	})

	if errors.Is(err, reservations.ErrInvalidTransition) {
		return nil
	}

	return err
}

// sweep expires every currently active reservation, one transaction each.
func (w *conservationWorld) sweep() error {
	active, err := w.store.FindActiveReservationsCreatedBefore(context.Background(), fixtures.FixedNow.Add(time.Hour))
	if err != nil {
		return err
	}

	for _, reservation := range active {
		err = w.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
			_, expireErr := w.machine.Expire(ctx, tx, reservation.ID)
			return expireErr
		})

		if err != nil && !errors.Is(err, reservations.ErrInvalidTransition) {
			return err
		}
	}

	return nil
}

func (w *conservationWorld) step(rng *rand.Rand) error {
	switch roll := rng.IntN(10); {
	case roll < 6:
		return w.reserve(rng)
	case roll < 9:
		return w.cancel(rng)
	default:
		return w.sweep()
	}
}

// assertCountersInRange checks 0 <= available <= total for every book.
// It only uses assert so it can run outside the test goroutine.
func (w *conservationWorld) assertCountersInRange(t *testing.T) {
	t.Helper()

	for _, book := range w.books {
		current, err := w.store.GetBook(context.Background(), book.ID)
		if !assert.NoError(t, err) {
			continue
		}

		assert.GreaterOrEqual(t, current.AvailableCopies, 0, "book %s went below zero", book.ISBN)
		assert.LessOrEqual(t, current.AvailableCopies, current.TotalCopies, "book %s exceeds its total", book.ISBN)
	}
}

// assertConserved checks available == total - active holds for every book.
func (w *conservationWorld) assertConserved(t *testing.T) {
	t.Helper()

	active, err := w.store.FindActiveReservationsCreatedBefore(context.Background(), fixtures.FixedNow.Add(time.Hour))
	require.NoError(t, err)

	holds := make(map[uuid.UUID]int)
	for _, reservation := range active {
		for _, bookID := range reservation.BookIDs {
			holds[bookID]++
		}
	}

	for _, book := range w.books {
		current, err := w.store.GetBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, current.TotalCopies-holds[book.ID], current.AvailableCopies,
			"book %s: available copies should equal total minus active holds", book.ISBN)
	}
}

func Test_StateMachine_MixedSequence_ConservesCopies(t *testing.T) {
	// setup
	w := newConservationWorld(t)
	rng := rand.New(rand.NewPCG(7, 11))

	for i := range 300 {
		// act
		require.NoError(t, w.step(rng), "step %d", i)

		// assert
		w.assertCountersInRange(t)
		w.assertConserved(t)
	}

	assert.NotEmpty(t, w.created, "the sequence should have admitted reservations")
}

func Test_StateMachine_ConcurrentMix_ConservesCopies(t *testing.T) {
	// setup
	w := newConservationWorld(t)

	const workers = 8

	var (
		wg   sync.WaitGroup
		errs = make([]error, workers)
		done = make(chan struct{})
	)

	// arrange
	observerDone := make(chan struct{})
	go func() {
		defer close(observerDone)

		for {
			select {
			case <-done:
				return
			default:
				w.assertCountersInRange(t)
			}
		}
	}()

	// act
	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			rng := rand.New(rand.NewPCG(uint64(i), 42)) //nolint:gosec // test data

			for range 100 {
				if err := w.step(rng); err != nil {
					errs[i] = err
					return
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	<-observerDone

	// assert
	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}

	w.assertCountersInRange(t)
	w.assertConserved(t)
}
