// Package reservebooks implements the Reserve Books use case.
//
// A user reserves one copy of each of 1 to 3 distinct books in a single request. Admission is
// all-or-nothing: the user and every book are resolved, then the reservation state machine takes
// one copy of each book through the inventory ledger and stores the ACTIVE reservation, all in
// one store transaction. When any book has no copy left, nothing is reserved and the error
// names that book.
//
// Transient store failures (serialization failures, deadlocks) are retried with exponential backoff.
// Business rejections are final.
package reservebooks
