package reservationsbyuser

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler lists the reservations of a user.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the user's reservations or a reservations.NotFoundError for an unknown user.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ReservationsByUser, error) {
	ctx = reservations.WithEventualConsistency(ctx)

	user, err := h.reader.GetUser(ctx, query.UserID)
	if err != nil {
		return ReservationsByUser{}, err
	}

	list, err := h.reader.FindReservationsByUser(ctx, user.ID)
	if err != nil {
		return ReservationsByUser{}, err
	}

	results, err := reservations.MaterializeAll(ctx, h.reader, list)
	if err != nil {
		return ReservationsByUser{}, err
	}

	return ReservationsByUser{
		User:         user,
		Reservations: results,
		Count:        len(results),
	}, nil
}
