// Package reservations provides the core abstractions and types of the book reservation engine.
//
// This package defines the data model shared by all engine components and store implementations:
// books with their per-title copy counters, registered users, and reservations that hold
// 1 to 3 distinct books for one user until they are canceled or expire.
//
// Sub-packages implement the engine itself:
//   - inventory: the Ledger owning atomic, bounds-checked mutation of available copy counters
//   - lifecycle: the StateMachine driving reservations from ACTIVE to CANCELED or EXPIRED
//   - postgresengine: a PostgreSQL record store (pgx.Pool, sql.DB or sqlx.DB)
//   - memengine: an in-memory record store built on go-memdb
//
// Key types:
//   - Book, User, Reservation: the records kept by a Store
//   - ReservationResult: a reservation materialized with its user and books
//   - Store / Tx: the record store contract with an ambient transaction
//
// Common usage pattern:
//
//	err := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
//		reservation, err := stateMachine.Create(ctx, tx, userID, bookIDs)
//		if err != nil {
//			return err // rolls back every counter change made in this transaction
//		}
//
//		result, err = reservations.Materialize(ctx, tx, reservation)
//		return err
//	})
package reservations
