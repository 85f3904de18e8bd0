package main

import (
	"context"
	"time"

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
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/observable"
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/readcache"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
)

// application holds the fully wrapped handlers of every use case.
type application struct {
	store reservations.Store
	clock func() time.Time
	inst  instruments

	addBook            shell.CommandHandler[addbook.Command, reservations.Book]
	registerUser       shell.CommandHandler[registeruser.Command, reservations.User]
	reserveBooks       shell.CommandHandler[reservebooks.Command, reservations.ReservationResult]
	cancelReservation  shell.CommandHandler[cancelreservation.Command, reservations.ReservationResult]
	expireReservations shell.CommandHandler[expirereservations.Command, expirereservations.SweepReport]

	reservationsByUser shell.QueryHandler[reservationsbyuser.Query, reservationsbyuser.ReservationsByUser]
	reservationDetails shell.QueryHandler[reservationdetails.Query, reservations.ReservationResult]
	allReservations    shell.QueryHandler[allreservations.Query, reservations.Page[reservations.ReservationResult]]
	bookCatalog        shell.QueryHandler[bookcatalog.Query, reservations.Page[reservations.Book]]
	bookDetails        shell.QueryHandler[bookdetails.Query, reservations.Book]
	registeredUsers    shell.QueryHandler[registeredusers.Query, reservations.Page[reservations.User]]
	userDetails        shell.QueryHandler[userdetails.Query, reservations.User]
}

func (inst instruments) observableOptions() []observable.Option {
	opts := []observable.Option{
		observable.WithLogging(inst.logger),
		observable.WithContextualLogging(inst.contextualLogger),
	}

	if inst.metrics != nil {
		opts = append(opts, observable.WithMetrics(inst.metrics))
	}

	if inst.tracing != nil {
		opts = append(opts, observable.WithTracing(inst.tracing))
	}

	return opts
}

func (inst instruments) retryOptions(commandType string) []shell.RetryOption {
	if inst.metrics == nil {
		return nil
	}

	return []shell.RetryOption{shell.WithMetrics(inst.metrics, commandType)}
}

// wrapCommand puts the read cache invalidation and the observability wrapper around a command handler.
func wrapCommand[C shell.Command, R any](
	core shell.CommandHandler[C, R],
	cache *readcache.Cache,
	opts []observable.Option,
	keyspaces ...readcache.Keyspace,
) (shell.CommandHandler[C, R], error) {
	invalidating, err := readcache.NewInvalidatingCommandWrapper(core, cache, keyspaces...)
	if err != nil {
		return nil, err
	}

	wrapped, err := observable.NewCommandWrapper[C, R](invalidating, opts...)
	if err != nil {
		return nil, err
	}

	return wrapped, nil
}

// wrapQuery serves a query handler from the read cache and adds observability on the outside,
// so cache hits are measured too.
func wrapQuery[Q readcache.CacheableQuery, R any](
	core shell.QueryHandler[Q, R],
	cache *readcache.Cache,
	opts []observable.Option,
	keyspaces ...readcache.Keyspace,
) (shell.QueryHandler[Q, R], error) {
	cached, err := readcache.NewQueryWrapper(core, cache, keyspaces...)
	if err != nil {
		return nil, err
	}

	wrapped, err := observable.NewQueryWrapper[Q, R](cached, opts...)
	if err != nil {
		return nil, err
	}

	return wrapped, nil
}

//nolint:funlen // linear wiring
func newApplication(
	_ context.Context,
	store reservations.Store,
	inst instruments,
	cacheSize int,
	clock func() time.Time,
) (*application, error) {
	ledgerOpts := []inventory.Option{
		inventory.WithLogger(inst.logger),
		inventory.WithContextualLogger(inst.contextualLogger),
	}
	if inst.metrics != nil {
		ledgerOpts = append(ledgerOpts, inventory.WithMetrics(inst.metrics))
	}
	if inst.tracing != nil {
		ledgerOpts = append(ledgerOpts, inventory.WithTracing(inst.tracing))
	}

	ledger, err := inventory.NewLedger(ledgerOpts...)
	if err != nil {
		return nil, err
	}

	machine, err := lifecycle.NewStateMachine(ledger,
		lifecycle.WithClock(clock),
		lifecycle.WithLogger(inst.logger),
		lifecycle.WithContextualLogger(inst.contextualLogger),
	)
	if err != nil {
		return nil, err
	}

	cacheOpts := []readcache.Option{readcache.WithLogger(inst.logger)}
	if inst.metrics != nil {
		cacheOpts = append(cacheOpts, readcache.WithMetrics(inst.metrics))
	}

	cache, err := readcache.New(cacheSize, cacheOpts...)
	if err != nil {
		return nil, err
	}

	sweepOpts := []expirereservations.Option{
		expirereservations.WithLogger(inst.logger),
		expirereservations.WithContextualLogger(inst.contextualLogger),
		expirereservations.WithRetryOptions(inst.retryOptions(expirereservations.Command{}.CommandType())...),
	}
	if inst.metrics != nil {
		sweepOpts = append(sweepOpts, expirereservations.WithMetrics(inst.metrics))
	}

	sweeper, err := expirereservations.NewCommandHandler(store, machine, sweepOpts...)
	if err != nil {
		return nil, err
	}

	obs := inst.observableOptions()
	app := &application{store: store, clock: clock, inst: inst}

	if app.addBook, err = wrapCommand[addbook.Command, reservations.Book](
		addbook.NewCommandHandler(store,
			addbook.WithClock(clock),
			addbook.WithRetryOptions(inst.retryOptions(addbook.Command{}.CommandType())...),
		),
		cache, obs, readcache.KeyspaceBooks,
	); err != nil {
		return nil, err
	}

	if app.registerUser, err = wrapCommand[registeruser.Command, reservations.User](
		registeruser.NewCommandHandler(store,
			registeruser.WithClock(clock),
			registeruser.WithRetryOptions(inst.retryOptions(registeruser.Command{}.CommandType())...),
		),
		cache, obs, readcache.KeyspaceUsers,
	); err != nil {
		return nil, err
	}

	if app.reserveBooks, err = wrapCommand[reservebooks.Command, reservations.ReservationResult](
		reservebooks.NewCommandHandler(store, machine,
			reservebooks.WithRetryOptions(inst.retryOptions(reservebooks.Command{}.CommandType())...),
		),
		cache, obs, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.cancelReservation, err = wrapCommand[cancelreservation.Command, reservations.ReservationResult](
		cancelreservation.NewCommandHandler(store, machine,
			cancelreservation.WithRetryOptions(inst.retryOptions(cancelreservation.Command{}.CommandType())...),
		),
		cache, obs, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.expireReservations, err = wrapCommand[expirereservations.Command, expirereservations.SweepReport](
		sweeper, cache, obs, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.reservationsByUser, err = wrapQuery[reservationsbyuser.Query, reservationsbyuser.ReservationsByUser](
		reservationsbyuser.NewQueryHandler(store),
		cache, obs, readcache.KeyspaceUsers, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.reservationDetails, err = wrapQuery[reservationdetails.Query, reservations.ReservationResult](
		reservationdetails.NewQueryHandler(store),
		cache, obs, readcache.KeyspaceUsers, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.allReservations, err = wrapQuery[allreservations.Query, reservations.Page[reservations.ReservationResult]](
		allreservations.NewQueryHandler(store),
		cache, obs, readcache.KeyspaceUsers, readcache.KeyspaceBooks, readcache.KeyspaceReservations,
	); err != nil {
		return nil, err
	}

	if app.bookCatalog, err = wrapQuery[bookcatalog.Query, reservations.Page[reservations.Book]](
		bookcatalog.NewQueryHandler(store), cache, obs, readcache.KeyspaceBooks,
	); err != nil {
		return nil, err
	}

	if app.bookDetails, err = wrapQuery[bookdetails.Query, reservations.Book](
		bookdetails.NewQueryHandler(store), cache, obs, readcache.KeyspaceBooks,
	); err != nil {
		return nil, err
	}

	if app.registeredUsers, err = wrapQuery[registeredusers.Query, reservations.Page[reservations.User]](
		registeredusers.NewQueryHandler(store), cache, obs, readcache.KeyspaceUsers,
	); err != nil {
		return nil, err
	}

	if app.userDetails, err = wrapQuery[userdetails.Query, reservations.User](
		userdetails.NewQueryHandler(store), cache, obs, readcache.KeyspaceUsers,
	); err != nil {
		return nil, err
	}

	return app, nil
}
