// Package expirereservations implements the expiry sweep.
//
// The sweep finds every ACTIVE reservation created strictly before now minus the hold period
// (7 days by default) and expires each of them in its own transaction, releasing that
// reservation's books. There is no whole-batch atomicity: a crash mid-sweep leaves the rest for
// the next run.
//
// A reservation that left ACTIVE in the meantime, e.g. because the user canceled it, is skipped.
// Any other per-reservation failure is logged and counted and the sweep goes on. Only a failing
// scan fails the sweep. A sweep that finds nothing is a no-op, reported as idempotent and kept
// apart from failures in logs and metrics.
//
// The scheduler package triggers the sweep; the CLI can run it once on demand.
package expirereservations
