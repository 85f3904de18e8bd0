package allreservations

import (
	"context"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// QueryHandler lists reservations of all users.
type QueryHandler struct {
	reader reservations.Reader
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(reader reservations.Reader) QueryHandler {
	return QueryHandler{reader: reader}
}

// Handle returns the requested page of reservations in id order, materialized with users and books.
func (h QueryHandler) Handle(
	ctx context.Context,
	query Query,
) (reservations.Page[reservations.ReservationResult], error) {
	ctx = reservations.WithEventualConsistency(ctx)

	page, err := h.reader.ListReservations(ctx, query.Page)
	if err != nil {
		return reservations.Page[reservations.ReservationResult]{}, err
	}

	results, err := reservations.MaterializeAll(ctx, h.reader, page.Items)
	if err != nil {
		return reservations.Page[reservations.ReservationResult]{}, err
	}

	return reservations.Page[reservations.ReservationResult]{
		Items:      results,
		Number:     page.Number,
		Size:       page.Size,
		TotalItems: page.TotalItems,
	}, nil
}
