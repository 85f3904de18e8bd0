package bookcatalog

import (
	"fmt"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	queryType = "BookCatalog"
)

// Query represents the intent to browse the catalog or to look up one book by ISBN.
type Query struct {
	Page reservations.PageRequest
	ISBN string
}

// BuildQuery creates a new Query for one catalog page.
func BuildQuery(page reservations.PageRequest) Query {
	return Query{Page: page}
}

// BuildISBNQuery creates a new Query that looks up a single book.
func BuildISBNQuery(isbn string) Query {
	return Query{Page: reservations.DefaultPageRequest(), ISBN: isbn}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the read cache key for this query's parameters.
func (q Query) CacheKey() string {
	if q.ISBN != "" {
		return "isbn:" + q.ISBN
	}

	return fmt.Sprintf("page:%d:%d", q.Page.Number, q.Page.Size)
}
