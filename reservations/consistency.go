package reservations

import "context"

// ConsistencyLevel defines the consistency requirements for store reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database to ensure
	// read-after-write consistency. This is the default because admission and
	// lifecycle transitions must see the most recent counters and statuses.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from replica databases, trading consistency
	// for performance. Suitable for listings that can tolerate slightly stale data.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "reservations.consistency_level"

// WithStrongConsistency returns a context that signals store reads must use the primary database.
//
// Example usage:
//
//	ctx = reservations.WithStrongConsistency(ctx)
//	book, err := store.GetBook(ctx, bookID)
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals store reads may use a replica.
// Reads inside a transaction always use the primary regardless of this setting.
//
// Example usage:
//
//	ctx = reservations.WithEventualConsistency(ctx)
//	list, err := store.FindReservationsByUser(ctx, userID)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context.
// If no consistency level is set, it returns StrongConsistency as the safe default.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
