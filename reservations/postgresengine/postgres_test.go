package postgresengine_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	. "github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
	"github.com/AntonStoeckl/book-reservations-go/testutil/helper/postgreswrapper"
	"github.com/AntonStoeckl/book-reservations-go/testutil/helper/spies"
)

func newWrapper(t *testing.T, options ...Option) (*Store, postgreswrapper.Wrapper) {
	t.Helper()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, options...)
	t.Cleanup(wrapper.Close)
	postgreswrapper.CleanUp(t, wrapper)

	return wrapper.GetStore(), wrapper
}

func Test_NewStore_RejectsNilConnections(t *testing.T) {
	_, err := NewStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection)

	_, err = NewStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection)

	_, err = NewStoreFromSQLX(nil)
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection)

	_, err = NewStoreFromPGXPoolAndReplica(nil, nil)
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection)

	_, err = NewStoreFromSQLDBAndReplica(nil, nil)
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection)
}

func Test_Store_Migrate_IsIdempotent(t *testing.T) {
	store, _ := newWrapper(t)

	assert.NoError(t, store.Migrate(context.Background()), "running the migration twice should succeed")
}

func Test_Store_InsertBook_And_GetBook(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	book := fixtures.BuildBook(t, 4)

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertBook(ctx, book)
	})

	// assert
	require.NoError(t, err)

	byID, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book, byID, "stored book should be read back unchanged")

	byISBN, err := store.GetBookByISBN(ctx, book.ISBN)
	require.NoError(t, err)
	assert.True(t, byISBN.SameAs(book))
}

func Test_Store_InsertBook_RejectsDuplicateISBN(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	book := fixtures.GivenBook(t, store, 1)
	duplicate := fixtures.BuildBook(t, 2)
	duplicate.ISBN = book.ISBN

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertBook(ctx, duplicate)
	})

	// assert
	assert.ErrorIs(t, err, reservations.ErrDuplicateISBN)
}

func Test_Store_InsertUser_RejectsDuplicates(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	existing := fixtures.GivenUser(t, store)

	sameName := fixtures.BuildUser(t)
	sameName.Username = existing.Username

	sameEmail := fixtures.BuildUser(t)
	sameEmail.Email = strings.ToUpper(existing.Email)

	// act
	nameErr := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertUser(ctx, sameName)
	})
	emailErr := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertUser(ctx, sameEmail)
	})

	// assert
	assert.ErrorIs(t, nameErr, reservations.ErrDuplicateUsername)
	assert.ErrorIs(t, emailErr, reservations.ErrDuplicateEmail, "email uniqueness should ignore case")
}

func Test_Store_AvailableCopies_ConditionalUpdates(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	book := fixtures.GivenBook(t, store, 2)
	var applied []bool

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		for _, step := range []func() (bool, error){
			func() (bool, error) { return tx.DecrementAvailableCopies(ctx, book.ID, 2) },
			func() (bool, error) { return tx.DecrementAvailableCopies(ctx, book.ID, 1) },
			func() (bool, error) { return tx.IncrementAvailableCopies(ctx, book.ID, 2) },
			func() (bool, error) { return tx.IncrementAvailableCopies(ctx, book.ID, 1) },
			func() (bool, error) { return tx.DecrementAvailableCopies(ctx, uuid.New(), 1) },
		} {
			ok, stepErr := step()
			if stepErr != nil {
				return stepErr
			}

			applied = append(applied, ok)
		}

		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false, false}, applied)
	assert.Equal(t, 2, fixtures.AvailableCopies(t, store, book.ID))
}

func Test_Store_WithinTx_RollsBackOnError(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	book := fixtures.GivenBook(t, store, 3)
	failure := errors.New("boom")

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		applied, decErr := tx.DecrementAvailableCopies(ctx, book.ID, 1)
		require.NoError(t, decErr)
		require.True(t, applied)

		inTx, getErr := tx.GetBook(ctx, book.ID)
		require.NoError(t, getErr)
		assert.Equal(t, 2, inTx.AvailableCopies, "the transaction should see its own write")

		return failure
	})

	// assert
	assert.ErrorIs(t, err, failure, "the error of fn should be returned unchanged")
	assert.Equal(t, 3, fixtures.AvailableCopies(t, store, book.ID), "the write should be rolled back")
}

func Test_Store_InsertReservation_And_CompareAndSetStatus(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	user := fixtures.GivenUser(t, store)
	bookA := fixtures.GivenBook(t, store, 1)
	bookB := fixtures.GivenBook(t, store, 1)
	reservation := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, bookA.ID, bookB.ID)
	later := fixtures.FixedNow.Add(time.Hour)
	var first, second bool

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		var casErr error

		first, casErr = tx.CompareAndSetReservationStatus(
			ctx, reservation.ID, reservations.StatusActive, reservations.StatusCanceled, later)
		if casErr != nil {
			return casErr
		}

		second, casErr = tx.CompareAndSetReservationStatus(
			ctx, reservation.ID, reservations.StatusActive, reservations.StatusExpired, later)

		return casErr
	})

	// assert
	require.NoError(t, err)
	assert.True(t, first, "the first transition should apply")
	assert.False(t, second, "the second transition should find the status changed")

	stored, err := store.GetReservation(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, reservations.StatusCanceled, stored.Status)
	assert.Equal(t, later, stored.UpdatedAt)
	assert.Equal(t, fixtures.FixedNow, stored.CreatedAt)
	assert.Equal(t, reservations.SortBookIDs([]uuid.UUID{bookA.ID, bookB.ID}), stored.BookIDs)
	assert.Equal(t, user.ID, stored.UserID)
}

func Test_Store_FindActiveReservationsCreatedBefore(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	user := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 5)
	cutoff := fixtures.FixedNow.Add(-reservations.HoldPeriod)

	newer := fixtures.GivenActiveReservation(t, store, user.ID, cutoff.Add(-time.Hour), book.ID)
	older := fixtures.GivenActiveReservation(t, store, user.ID, cutoff.Add(-48*time.Hour), book.ID)
	fixtures.GivenActiveReservation(t, store, user.ID, cutoff, book.ID)
	canceled := fixtures.GivenActiveReservation(t, store, user.ID, cutoff.Add(-72*time.Hour), book.ID)

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		_, err := tx.CompareAndSetReservationStatus(
			ctx, canceled.ID, reservations.StatusActive, reservations.StatusCanceled, fixtures.FixedNow)
		return err
	}))

	// act
	found, err := store.FindActiveReservationsCreatedBefore(ctx, cutoff)

	// assert
	require.NoError(t, err)
	require.Len(t, found, 2, "only active reservations strictly before the cutoff should be found")
	assert.Equal(t, older.ID, found[0].ID, "oldest first")
	assert.Equal(t, newer.ID, found[1].ID)
}

func Test_Store_FindReservationsByUser(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	user := fixtures.GivenUser(t, store)
	other := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 3)

	first := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow.Add(-time.Hour), book.ID)
	second := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, book.ID)
	fixtures.GivenActiveReservation(t, store, other.ID, fixtures.FixedNow, book.ID)

	// act
	found, err := store.FindReservationsByUser(ctx, user.ID)
	none, noneErr := store.FindReservationsByUser(ctx, uuid.New())

	// assert
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)

	require.NoError(t, noneErr)
	assert.Empty(t, none)
}

func Test_Store_Lookups_ReturnNotFound(t *testing.T) {
	store, _ := newWrapper(t)
	ctx := context.Background()

	_, err := store.GetBook(ctx, uuid.New())
	assert.ErrorIs(t, err, reservations.ErrNotFound)

	_, err = store.GetBookByISBN(ctx, "9780000000000")
	assert.ErrorIs(t, err, reservations.ErrNotFound)

	_, err = store.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, reservations.ErrNotFound)

	_, err = store.GetReservation(ctx, uuid.New())

	var notFound reservations.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, reservations.EntityReservation, notFound.Entity)
}

func Test_Store_ListBooks_PagesSortedByID(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	ids := make([]uuid.UUID, 0, 5)
	for range 5 {
		ids = append(ids, fixtures.GivenBook(t, store, 1).ID)
	}
	sorted := reservations.SortBookIDs(ids)

	// act
	page, err := store.ListBooks(ctx, reservations.PageRequest{Number: 1, Size: 2})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, sorted[2], page.Items[0].ID)
	assert.Equal(t, sorted[3], page.Items[1].ID)
}

func Test_Store_ListUsersAndReservations(t *testing.T) {
	// setup
	store, _ := newWrapper(t)
	ctx := context.Background()

	// arrange
	user := fixtures.GivenUser(t, store)
	fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 1)
	fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, book.ID)

	// act
	users, usersErr := store.ListUsers(ctx, reservations.DefaultPageRequest())
	list, listErr := store.ListReservations(ctx, reservations.DefaultPageRequest())

	// assert
	require.NoError(t, usersErr)
	assert.Equal(t, 2, users.TotalItems)
	assert.Len(t, users.Items, 2)

	require.NoError(t, listErr)
	require.Len(t, list.Items, 1)
	assert.Equal(t, []uuid.UUID{book.ID}, list.Items[0].BookIDs)
}

func Test_Store_WithinTx_RecordsObservability(t *testing.T) {
	// setup
	metricsSpy := spies.NewMetricsCollectorSpy()
	tracingSpy := spies.NewTracingCollectorSpy()
	logger, logSpy := spies.NewLogger()
	store, _ := newWrapper(t, WithMetrics(metricsSpy), WithTracing(tracingSpy), WithLogger(logger))
	ctx := context.Background()

	// arrange
	book := fixtures.GivenBook(t, store, 1)
	metricsSpy.Reset()

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
		_, decErr := tx.DecrementAvailableCopies(ctx, book.ID, 1)
		return decErr
	})
	rolledBackErr := store.WithinTx(ctx, func(context.Context, reservations.Tx) error {
		return errors.New("abort")
	})

	// assert
	require.NoError(t, err)
	require.Error(t, rolledBackErr)

	assert.True(t, metricsSpy.HasDurationRecord(MetricQueryDuration), "statement durations should be recorded")
	assert.True(t, metricsSpy.HasDurationRecord(MetricTxDuration), "transaction durations should be recorded")
	assert.Positive(t, metricsSpy.GetContextCallCount(), "the contextual collector methods should be used")
	assert.True(t, tracingSpy.HasSpan("reservationstore.tx", "success"))
	assert.True(t, tracingSpy.HasSpan("reservationstore.tx", "rolled_back"))
	assert.True(t, tracingSpy.AllFinished())
	assert.True(t, logSpy.HasLog(slog.LevelDebug, "executed sql for: decrement_available_copies"), "sql should be logged at debug level")
}

func Test_Store_Option_Validation(t *testing.T) {
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	t.Cleanup(wrapper.Close)

	_, err := NewStoreFromPGXPool(nil, WithTransactionTimeout(0))
	assert.ErrorIs(t, err, reservations.ErrNilDatabaseConnection, "the connection is checked before options")

	assert.ErrorIs(t, WithTransactionTimeout(0)(wrapper.GetStore()), ErrInvalidTransactionTimeout)
	assert.ErrorIs(t, WithTransactionTimeout(-time.Second)(wrapper.GetStore()), ErrInvalidTransactionTimeout)
}
