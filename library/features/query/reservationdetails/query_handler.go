package reservationdetails

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler loads one reservation materialized with its user and books.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the reservation or a reservations.NotFoundError.
func (h QueryHandler) Handle(ctx context.Context, query Query) (reservations.ReservationResult, error) {
	ctx = reservations.WithEventualConsistency(ctx)

	reservation, err := h.reader.GetReservation(ctx, query.ReservationID)
	if err != nil {
		return reservations.ReservationResult{}, err
	}

	return reservations.Materialize(ctx, h.reader, reservation)
}
