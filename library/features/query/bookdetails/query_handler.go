package bookdetails

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler loads one book with its current counters.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the book or a reservations.NotFoundError.
func (h QueryHandler) Handle(ctx context.Context, query Query) (reservations.Book, error) {
	return h.reader.GetBook(reservations.WithEventualConsistency(ctx), query.BookID)
}
