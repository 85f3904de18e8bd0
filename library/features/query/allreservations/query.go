package allreservations

import (
	"fmt"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	queryType = "AllReservations"
)

// Query represents the intent to list one page of all reservations.
type Query struct {
	Page reservations.PageRequest
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(page reservations.PageRequest) Query {
	return Query{Page: page}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the read cache key for this query's parameters.
func (q Query) CacheKey() string {
	return fmt.Sprintf("page:%d:%d", q.Page.Number, q.Page.Size)
}
