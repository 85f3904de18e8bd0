package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
	"github.com/AntonStoeckl/book-reservations-go/reservations/memengine"
)

// FixedClock returns a clock that always reports FixedNow.
func FixedClock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(t testing.TB) *memengine.Store {
	t.Helper()

	store, err := memengine.NewStore(memengine.WithClock(FixedClock()))
	require.NoError(t, err)

	return store
}

// NewStateMachine creates a StateMachine on a plain ledger whose clock reports FixedNow.
func NewStateMachine(t testing.TB, options ...lifecycle.Option) lifecycle.StateMachine {
	t.Helper()

	ledger, err := inventory.NewLedger()
	require.NoError(t, err)

	options = append([]lifecycle.Option{lifecycle.WithClock(FixedClock())}, options...)
	machine, err := lifecycle.NewStateMachine(ledger, options...)
	require.NoError(t, err)

	return machine
}
