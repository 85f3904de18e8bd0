package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/AntonStoeckl/book-reservations-go/library/features/command/addbook"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/cancelreservation"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/expirereservations"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/registeruser"
	"github.com/AntonStoeckl/book-reservations-go/library/features/command/reservebooks"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/allreservations"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/bookcatalog"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/bookdetails"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/registeredusers"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/reservationdetails"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/reservationsbyuser"
	"github.com/AntonStoeckl/book-reservations-go/library/features/query/userdetails"
	"github.com/AntonStoeckl/book-reservations-go/library/scheduler"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

var (
	errMissingFlag    = errors.New("missing required flag")
	errNotMigratable  = errors.New("the selected engine has no schema to migrate")
	errUnexpectedArgs = errors.New("unexpected arguments")
)

type migrationResult struct {
	Migrated bool `json:"migrated"`
}

type sweepResult struct {
	Cutoff   time.Time   `json:"cutoff"`
	NoOp     bool        `json:"noOp"`
	Found    int         `json:"found"`
	Expired  []uuid.UUID `json:"expired"`
	Skipped  []uuid.UUID `json:"skipped"`
	Failed   []uuid.UUID `json:"failed"`
	Attempts int         `json:"retryAttempts"`
}

type daemonResult struct {
	Stopped time.Time `json:"stopped"`
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func parseFlags(flags *pflag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return usageError(err)
	}

	if flags.NArg() > 0 {
		return usageError(fmt.Errorf("%w: %v", errUnexpectedArgs, flags.Args()))
	}

	return nil
}

func requireFlag(flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if !flags.Changed(name) {
			return usageError(fmt.Errorf("%w --%s", errMissingFlag, name))
		}
	}

	return nil
}

func parseID(flag, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, usageError(fmt.Errorf("--%s must be a uuid: %w", flag, err))
	}

	return id, nil
}

func pageFlags(flags *pflag.FlagSet) (*int, *int) {
	number := flags.Int("page", 0, "zero-based page number")
	size := flags.Int("size", reservations.DefaultPageSize, "page size")

	return number, size
}

func runMigrate(ctx context.Context, app *application, args []string) (any, error) {
	if err := parseFlags(newFlagSet("migrate"), args); err != nil {
		return nil, err
	}

	m, ok := app.store.(migrator)
	if !ok {
		return nil, usageError(errNotMigratable)
	}

	if err := m.Migrate(ctx); err != nil {
		return nil, err
	}

	return migrationResult{Migrated: true}, nil
}

func runAddBook(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("add-book")
	title := flags.String("title", "", "book title")
	author := flags.String("author", "", "book author")
	isbn := flags.String("isbn", "", "13 digit ISBN")
	copies := flags.Int("copies", 1, "number of copies owned")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	book, _, err := app.addBook.Handle(ctx, addbook.BuildCommand(*title, *author, *isbn, *copies))

	return book, err
}

func runRegisterUser(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("register-user")
	username := flags.String("username", "", "unique username")
	email := flags.String("email", "", "unique email address")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	user, _, err := app.registerUser.Handle(ctx, registeruser.BuildCommand(*username, *email))

	return user, err
}

func runReserve(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("reserve")
	rawUser := flags.String("user", "", "user id")
	rawBooks := flags.StringSlice("book", nil, "book id, repeat or comma separate for several books")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "user", "book"); err != nil {
		return nil, err
	}

	userID, err := parseID("user", *rawUser)
	if err != nil {
		return nil, err
	}

	bookIDs := make([]uuid.UUID, 0, len(*rawBooks))

	for _, raw := range *rawBooks {
		bookID, parseErr := parseID("book", raw)
		if parseErr != nil {
			return nil, parseErr
		}

		bookIDs = append(bookIDs, bookID)
	}

	result, _, err := app.reserveBooks.Handle(ctx, reservebooks.BuildCommand(userID, bookIDs...))

	return result, err
}

func runCancel(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("cancel")
	rawID := flags.String("reservation", "", "reservation id")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "reservation"); err != nil {
		return nil, err
	}

	reservationID, err := parseID("reservation", *rawID)
	if err != nil {
		return nil, err
	}

	result, _, err := app.cancelReservation.Handle(ctx, cancelreservation.BuildCommand(reservationID))

	return result, err
}

func runReservationsByUser(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("reservations")
	rawUser := flags.String("user", "", "user id")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "user"); err != nil {
		return nil, err
	}

	userID, err := parseID("user", *rawUser)
	if err != nil {
		return nil, err
	}

	return app.reservationsByUser.Handle(ctx, reservationsbyuser.BuildQuery(userID))
}

func runReservationDetails(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("reservation")
	rawID := flags.String("id", "", "reservation id")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "id"); err != nil {
		return nil, err
	}

	reservationID, err := parseID("id", *rawID)
	if err != nil {
		return nil, err
	}

	return app.reservationDetails.Handle(ctx, reservationdetails.BuildQuery(reservationID))
}

func runAllReservations(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("all-reservations")
	number, size := pageFlags(flags)

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	page, err := reservations.BuildPageRequest(*number, *size)
	if err != nil {
		return nil, err
	}

	return app.allReservations.Handle(ctx, allreservations.BuildQuery(page))
}

func runBooks(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("books")
	number, size := pageFlags(flags)
	isbn := flags.String("isbn", "", "look up a single book by ISBN")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if *isbn != "" {
		return app.bookCatalog.Handle(ctx, bookcatalog.BuildISBNQuery(*isbn))
	}

	page, err := reservations.BuildPageRequest(*number, *size)
	if err != nil {
		return nil, err
	}

	return app.bookCatalog.Handle(ctx, bookcatalog.BuildQuery(page))
}

func runBookDetails(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("book")
	rawID := flags.String("id", "", "book id")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "id"); err != nil {
		return nil, err
	}

	bookID, err := parseID("id", *rawID)
	if err != nil {
		return nil, err
	}

	return app.bookDetails.Handle(ctx, bookdetails.BuildQuery(bookID))
}

func runUsers(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("users")
	number, size := pageFlags(flags)

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	page, err := reservations.BuildPageRequest(*number, *size)
	if err != nil {
		return nil, err
	}

	return app.registeredUsers.Handle(ctx, registeredusers.BuildQuery(page))
}

func runUserDetails(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("user")
	rawID := flags.String("id", "", "user id")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	if err := requireFlag(flags, "id"); err != nil {
		return nil, err
	}

	userID, err := parseID("id", *rawID)
	if err != nil {
		return nil, err
	}

	return app.userDetails.Handle(ctx, userdetails.BuildQuery(userID))
}

func runSweep(ctx context.Context, app *application, args []string) (any, error) {
	if err := parseFlags(newFlagSet("sweep"), args); err != nil {
		return nil, err
	}

	report, handlerResult, err := app.expireReservations.Handle(ctx, expirereservations.BuildCommand(app.clock()))
	if err != nil {
		return nil, err
	}

	return sweepResult{
		Cutoff:   report.Cutoff,
		NoOp:     report.NoOp,
		Found:    report.Found,
		Expired:  nonNil(report.Expired),
		Skipped:  nonNil(report.Skipped),
		Failed:   nonNil(report.Failed),
		Attempts: handlerResult.RetryAttempts,
	}, nil
}

func runDaemon(ctx context.Context, app *application, args []string) (any, error) {
	flags := newFlagSet("daemon")
	spec := flags.String("schedule", scheduler.DefaultSpec, "cron schedule of the expiry sweep")
	runTimeout := flags.Duration("run-timeout", scheduler.DefaultRunTimeout, "upper bound for one sweep")
	runNow := flags.Bool("run-now", false, "sweep once right after start")

	if err := parseFlags(flags, args); err != nil {
		return nil, err
	}

	s, err := scheduler.New(app.expireReservations,
		scheduler.WithSpec(*spec),
		scheduler.WithRunTimeout(*runTimeout),
		scheduler.WithClock(app.clock),
		scheduler.WithLogger(app.inst.logger),
	)
	if err != nil {
		return nil, usageError(err)
	}

	if *runNow {
		if runErr := s.RunOnce(ctx); runErr != nil {
			return nil, runErr
		}
	}

	if err = s.Start(ctx); err != nil {
		return nil, err
	}

	<-ctx.Done()
	<-s.Stop().Done()

	return daemonResult{Stopped: app.clock().UTC()}, nil
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}

	return ids
}
