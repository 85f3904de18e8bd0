// Package spies provides recording test doubles for the logging, metrics, and tracing interfaces
// of the reservations package.
package spies
