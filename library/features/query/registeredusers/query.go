package registeredusers

import (
	"fmt"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	queryType = "RegisteredUsers"
)

// Query represents the intent to list one page of registered users.
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
