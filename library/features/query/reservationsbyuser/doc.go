// Package reservationsbyuser implements the Reservations by User query use case.
//
// It returns every reservation of a user regardless of status, oldest first, each materialized
// with the user and the current state of its books. The user must exist. Reads may be served by
// a replica because the listing tolerates slightly stale data.
package reservationsbyuser
