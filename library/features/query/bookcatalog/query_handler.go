package bookcatalog

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler lists the catalog.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the requested page, or for an ISBN lookup a page holding that one book.
func (h QueryHandler) Handle(ctx context.Context, query Query) (reservations.Page[reservations.Book], error) {
	ctx = reservations.WithEventualConsistency(ctx)

	if query.ISBN == "" {
		return h.reader.ListBooks(ctx, query.Page)
	}

	book, err := h.reader.GetBookByISBN(ctx, query.ISBN)
	if err != nil {
		return reservations.Page[reservations.Book]{}, err
	}

	return reservations.Page[reservations.Book]{
		Items:      reservations.Books{book},
		Number:     0,
		Size:       1,
		TotalItems: 1,
	}, nil
}
