// Package lifecycle implements the reservation state machine.
//
// A reservation is created ACTIVE and holds one copy of each of its books. It leaves ACTIVE exactly once,
// either CANCELED by its user or EXPIRED by the sweep, and the copies are given back in the same transaction
// as the status change. Terminal states have no way out.
package lifecycle
