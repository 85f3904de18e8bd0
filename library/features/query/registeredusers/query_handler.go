package registeredusers

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler lists registered users.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the requested page of users in id order.
func (h QueryHandler) Handle(ctx context.Context, query Query) (reservations.Page[reservations.User], error) {
	return h.reader.ListUsers(reservations.WithEventualConsistency(ctx), query.Page)
}
