package bookdetails

import "github.com/google/uuid"

const (
	queryType = "BookDetails"
)

// Query represents the intent to look up one book by its id.
type Query struct {
	BookID uuid.UUID
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(bookID uuid.UUID) Query {
	return Query{BookID: bookID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the read cache key for this query's parameters.
func (q Query) CacheKey() string {
	return q.BookID.String()
}
