package acceptance_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/library/features/command/cancelreservation"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/expirereservations"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/reservebooks"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/reservationsbyuser"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
	"github.com/AntonStoeckl/book-reservations-go/reservations/memengine"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
)

var errorKinds = map[string]error{
	"NotFound":          reservations.ErrNotFound,
	"InsufficientStock": reservations.ErrInsufficientStock,
	"LimitExceeded":     reservations.ErrLimitExceeded,
	"InvalidBookSet":    reservations.ErrInvalidBookSet,
	"InvalidTransition": reservations.ErrInvalidTransition,
}

type libraryTestContext struct {
	store        *memengine.Store
	reserve      reservebooks.CommandHandler
	cancel       cancelreservation.CommandHandler
	sweep        expirereservations.CommandHandler
	listByUser   reservationsbyuser.QueryHandler
	books        map[string]reservations.Book
	users        map[string]reservations.User
	reservations map[string]uuid.UUID
	last         uuid.UUID
	err          error
	raceErrs     []error
	sweepReport  expirereservations.SweepReport
}

func (c *libraryTestContext) reset() error {
	store, err := memengine.NewStore(memengine.WithClock(fixtures.FixedClock()))
	if err != nil {
		return err
	}

	ledger, err := inventory.NewLedger()
	if err != nil {
		return err
	}

	machine, err := lifecycle.NewStateMachine(ledger, lifecycle.WithClock(fixtures.FixedClock()))
	if err != nil {
		return err
	}

	sweep, err := expirereservations.NewCommandHandler(store, machine)
	if err != nil {
		return err
	}

	*c = libraryTestContext{
		store:        store,
		reserve:      reservebooks.NewCommandHandler(store, machine),
		cancel:       cancelreservation.NewCommandHandler(store, machine),
		sweep:        sweep,
		listByUser:   reservationsbyuser.NewQueryHandler(store),
		books:        map[string]reservations.Book{},
		users:        map[string]reservations.User{},
		reservations: map[string]uuid.UUID{},
	}

	return nil
}

func (c *libraryTestContext) aUser(name string) error {
	user, err := reservations.BuildUser(uuid.New(), name, name+"@library.example", fixtures.FixedNow)
	if err != nil {
		return err
	}

	c.users[name] = user

	return c.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		return tx.InsertUser(ctx, user)
	})
}

func (c *libraryTestContext) aBookWithCopies(title string, total, available int) error {
	book, err := reservations.BuildBook(uuid.New(), title, "Some Author", fixtures.NextISBN(), total, fixtures.FixedNow)
	if err != nil {
		return err
	}

	c.books[title] = book

	return c.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		if insertErr := tx.InsertBook(ctx, book); insertErr != nil {
			return insertErr
		}

		if taken := total - available; taken > 0 {
			if _, decErr := tx.DecrementAvailableCopies(ctx, book.ID, taken); decErr != nil {
				return decErr
			}
		}

		return nil
	})
}

func (c *libraryTestContext) bookIDs(titles string) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	for _, title := range strings.Split(titles, ",") {
		book, ok := c.books[strings.TrimSpace(title)]
		if !ok {
			return nil, fmt.Errorf("unknown book %q", title)
		}

		ids = append(ids, book.ID)
	}

	return ids, nil
}

func (c *libraryTestContext) aReservationCreatedDaysAgo(alias, userName string, days int, titles string) error {
	ids, err := c.bookIDs(titles)
	if err != nil {
		return err
	}

	createdAt := fixtures.FixedNow.Add(-time.Duration(days) * 24 * time.Hour)
	reservation := reservations.Reservation{
		ID:        uuid.New(),
		UserID:    c.users[userName].ID,
		BookIDs:   reservations.SortBookIDs(ids),
		Status:    reservations.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	c.reservations[alias] = reservation.ID

	return c.store.WithinTx(context.Background(), func(ctx context.Context, tx reservations.Tx) error {
		for _, bookID := range reservation.BookIDs {
			applied, decErr := tx.DecrementAvailableCopies(ctx, bookID, 1)
			if decErr != nil {
				return decErr
			}

			if !applied {
				return fmt.Errorf("no copy left to hold for %s", bookID)
			}
		}

		return tx.InsertReservation(ctx, reservation)
	})
}

func (c *libraryTestContext) userReserves(userName, titles string) error {
	ids, err := c.bookIDs(titles)
	if err != nil {
		return err
	}

	result, _, err := c.reserve.Handle(context.Background(), reservebooks.BuildCommand(c.users[userName].ID, ids...))
	c.err = err

	if err == nil {
		c.last = result.Reservation.ID
	}

	return nil
}

func (c *libraryTestContext) usersReserveConcurrently(first, second, title string) error {
	ids, err := c.bookIDs(title)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	c.raceErrs = make([]error, 2)

	for i, name := range []string{first, second} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, c.raceErrs[i] = c.reserve.Handle(context.Background(), reservebooks.BuildCommand(c.users[name].ID, ids...))
		}()
	}

	wg.Wait()

	return nil
}

func (c *libraryTestContext) theLastReservationIsCanceled() error {
	_, _, c.err = c.cancel.Handle(context.Background(), cancelreservation.BuildCommand(c.last))
	return nil
}

func (c *libraryTestContext) theExpirySweepRuns() error {
	report, _, err := c.sweep.Handle(context.Background(), expirereservations.BuildCommand(fixtures.FixedNow))
	c.sweepReport = report

	return err
}

func (c *libraryTestContext) theRequestSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got: %w", c.err)
	}

	return nil
}

func (c *libraryTestContext) theRequestFailsWith(kind string) error {
	target, ok := errorKinds[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}

	if !errors.Is(c.err, target) {
		return fmt.Errorf("expected %s but got: %v", kind, c.err)
	}

	return nil
}

func (c *libraryTestContext) exactlyOneSucceeds(kind string) error {
	var succeeded, rejected int

	for _, err := range c.raceErrs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errorKinds[kind]):
			rejected++
		default:
			return fmt.Errorf("unexpected error: %w", err)
		}
	}

	if succeeded != 1 || rejected != 1 {
		return fmt.Errorf("expected one success and one %s, got %d successes and %d rejections", kind, succeeded, rejected)
	}

	return nil
}

func (c *libraryTestContext) bookHasAvailableCopies(title string, expected int) error {
	book, err := c.store.GetBook(context.Background(), c.books[title].ID)
	if err != nil {
		return err
	}

	if book.AvailableCopies != expected {
		return fmt.Errorf("expected %d available copies of %s, got %d", expected, title, book.AvailableCopies)
	}

	return nil
}

func (c *libraryTestContext) hasStatus(reservationID uuid.UUID, expected string) error {
	reservation, err := c.store.GetReservation(context.Background(), reservationID)
	if err != nil {
		return err
	}

	if reservation.Status.String() != expected {
		return fmt.Errorf("expected status %s, got %s", expected, reservation.Status)
	}

	return nil
}

func (c *libraryTestContext) theLastReservationIs(expected string) error {
	return c.hasStatus(c.last, expected)
}

func (c *libraryTestContext) reservationIs(alias, expected string) error {
	return c.hasStatus(c.reservations[alias], expected)
}

func (c *libraryTestContext) theSweepWasANoOp() error {
	if !c.sweepReport.NoOp {
		return fmt.Errorf("expected a no-op sweep, got %+v", c.sweepReport)
	}

	return nil
}

func (c *libraryTestContext) userHasReservations(userName string, expected int) error {
	result, err := c.listByUser.Handle(context.Background(), reservationsbyuser.BuildQuery(c.users[userName].ID))
	if err != nil {
		return err
	}

	if result.Count != expected {
		return fmt.Errorf("expected %d reservations for %s, got %d", expected, userName, result.Count)
	}

	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &libraryTestContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^a user "([^"]*)"$`, tc.aUser)
	ctx.Step(`^a book "([^"]*)" with (\d+) of (\d+) copies available$`, tc.aBookWithCopies)
	ctx.Step(`^a reservation "([^"]*)" of "([^"]*)" created (\d+) days ago holding "([^"]*)"$`, tc.aReservationCreatedDaysAgo)

	// When steps
	ctx.Step(`^"([^"]*)" reserves "([^"]*)"$`, tc.userReserves)
	ctx.Step(`^"([^"]*)" and "([^"]*)" reserve "([^"]*)" at the same time$`, tc.usersReserveConcurrently)
	ctx.Step(`^the last reservation is canceled$`, tc.theLastReservationIsCanceled)
	ctx.Step(`^the expiry sweep runs$`, tc.theExpirySweepRuns)

	// Then steps
	ctx.Step(`^the request succeeds$`, tc.theRequestSucceeds)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
	ctx.Step(`^exactly one reservation succeeds and the other fails with "([^"]*)"$`, tc.exactlyOneSucceeds)
	ctx.Step(`^"([^"]*)" has (\d+) available copies$`, tc.bookHasAvailableCopies)
	ctx.Step(`^the last reservation is "([^"]*)"$`, tc.theLastReservationIs)
	ctx.Step(`^reservation "([^"]*)" is "([^"]*)"$`, tc.reservationIs)
	ctx.Step(`^the sweep was a no-op$`, tc.theSweepWasANoOp)
	ctx.Step(`^"([^"]*)" has (\d+) reservations$`, tc.userHasReservations)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
