// Package inventory implements the Ledger, the only component allowed to change a book's available copies.
//
// The Ledger never reads a counter, decides, and writes it back. It asks the store for a conditional
// update (decrement only if enough copies are available, increment only if the total is not exceeded)
// and inspects whether the update was applied. Callers pass the transactional store view so the
// counter change commits or rolls back together with the reservation write that caused it.
//
// Failure modes:
//   - reservations.InsufficientStockError: the book has fewer copies available than requested
//   - reservations.NotFoundError: the book does not exist
//   - reservations.ErrOverRelease: a release would exceed total copies, an upstream double release
package inventory
