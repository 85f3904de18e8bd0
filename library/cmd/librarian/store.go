package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/config"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/memengine"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine"
)

// migrator is implemented by stores that own a schema.
type migrator interface {
	Migrate(ctx context.Context) error
}

// openStore connects the record store selected by the engine flag.
// The returned close function releases all connections.
func openStore(
	ctx context.Context,
	s settings,
	inst instruments,
	clock func() time.Time,
) (reservations.Store, func(), error) {
	if s.engine == engineMemory {
		store, err := memengine.NewStore(memengine.WithClock(clock), memengine.WithLogger(inst.logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}

	opts := []postgresengine.Option{
		postgresengine.WithLogger(inst.logger),
		postgresengine.WithContextualLogger(inst.contextualLogger),
		postgresengine.WithTransactionTimeout(s.txTimeout),
		postgresengine.WithClock(clock),
	}
	if inst.metrics != nil {
		opts = append(opts, postgresengine.WithMetrics(inst.metrics))
	}
	if inst.tracing != nil {
		opts = append(opts, postgresengine.WithTracing(inst.tracing))
	}

	switch s.engine {
	case enginePGXPool:
		return openPGXStore(ctx, s, opts)
	case engineSQLDB:
		return openSQLDBStore(ctx, s, opts)
	case engineSQLX:
		db, err := config.NewSQLX(ctx, s.dsn)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewStoreFromSQLX(db, opts...)
		if err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		return store, func() { _ = db.Close() }, nil
	default:
		return nil, nil, usageError(errUnknownEngine)
	}
}

func openPGXStore(ctx context.Context, s settings, opts []postgresengine.Option) (reservations.Store, func(), error) {
	pool, err := config.NewPGXPool(ctx, s.dsn)
	if err != nil {
		return nil, nil, err
	}

	if s.replicaDSN == "" {
		store, storeErr := postgresengine.NewStoreFromPGXPool(pool, opts...)
		if storeErr != nil {
			pool.Close()
			return nil, nil, storeErr
		}

		return store, pool.Close, nil
	}

	var replica *pgxpool.Pool

	replica, err = config.NewPGXPool(ctx, s.replicaDSN)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeAll := func() {
		replica.Close()
		pool.Close()
	}

	store, err := postgresengine.NewStoreFromPGXPoolAndReplica(pool, replica, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return store, closeAll, nil
}

func openSQLDBStore(ctx context.Context, s settings, opts []postgresengine.Option) (reservations.Store, func(), error) {
	db, err := config.NewSQLDB(ctx, s.dsn)
	if err != nil {
		return nil, nil, err
	}

	if s.replicaDSN == "" {
		store, storeErr := postgresengine.NewStoreFromSQLDB(db, opts...)
		if storeErr != nil {
			return nil, nil, errors.Join(storeErr, db.Close())
		}

		return store, func() { _ = db.Close() }, nil
	}

	var replica *sql.DB

	replica, err = config.NewSQLDB(ctx, s.replicaDSN)
	if err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	closeAll := func() {
		_ = replica.Close()
		_ = db.Close()
	}

	store, err := postgresengine.NewStoreFromSQLDBAndReplica(db, replica, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return store, closeAll, nil
}
