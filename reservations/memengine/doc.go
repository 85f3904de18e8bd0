// Package memengine provides an in-memory reservations.Store backed by hashicorp/go-memdb.
//
// It is meant for tests, local runs of the CLI, and the acceptance suite. Data is lost when the process exits.
package memengine
