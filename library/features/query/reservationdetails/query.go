package reservationdetails

import "github.com/google/uuid"

const (
	queryType = "ReservationDetails"
)

// Query represents the intent to look up one reservation.
type Query struct {
	ReservationID uuid.UUID
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(reservationID uuid.UUID) Query {
	return Query{ReservationID: reservationID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the read cache key for this query's parameters.
func (q Query) CacheKey() string {
	return q.ReservationID.String()
}
