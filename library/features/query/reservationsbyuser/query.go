package reservationsbyuser

import "github.com/google/uuid"

const (
	queryType = "ReservationsByUser"
)

// Query represents the intent to list the reservations of a user.
type Query struct {
	UserID uuid.UUID
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(userID uuid.UUID) Query {
	return Query{UserID: userID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the read cache key for this query's parameters.
func (q Query) CacheKey() string {
	return q.UserID.String()
}
