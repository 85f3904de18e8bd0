package userdetails

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler loads one registered user.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the user or a reservations.NotFoundError.
func (h QueryHandler) Handle(ctx context.Context, query Query) (reservations.User, error) {
	return h.reader.GetUser(reservations.WithEventualConsistency(ctx), query.UserID)
}
