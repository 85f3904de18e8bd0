// Package registeredusers implements the Registered Users query use case.
package registeredusers
