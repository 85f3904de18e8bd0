// Package postgresengine provides a PostgreSQL implementation of the reservations.Store interface.
//
// All counter and status changes are conditional single-statement updates, checked through the number of
// affected rows, so concurrent admissions and transitions on the same rows are serialized by PostgreSQL
// row locks instead of by application locks. A CHECK constraint keeps 0 <= available_copies <= total_copies
// as a second line of defense.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), all with transactions
//   - Optional read replica for reads that tolerate eventual consistency
//   - Serialization failures and deadlocks reported as reservations.ErrTransientFailure
//   - Embedded schema with Migrate
//   - Logging, metrics, and tracing through the dependency-free reservations interfaces
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(db, postgresengine.WithLogger(logger))
//	_ = store.Migrate(ctx)
//
//	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
//		_, err := stateMachine.Cancel(ctx, tx, reservationID)
//		return err
//	})
package postgresengine
