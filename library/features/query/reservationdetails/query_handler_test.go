package reservationdetails_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/library/features/query/reservationdetails"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
)

func Test_QueryHandler_Handle_MaterializesReservation(t *testing.T) {
	// setup
	store := fixtures.NewMemStore(t)
	handler := reservationdetails.NewQueryHandler(store)

	// arrange
	user := fixtures.GivenUser(t, store)
	book := fixtures.GivenBook(t, store, 2)
	reservation := fixtures.GivenActiveReservation(t, store, user.ID, fixtures.FixedNow, book.ID)

	// act
	result, err := handler.Handle(context.Background(), reservationdetails.BuildQuery(reservation.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservation.ID, result.Reservation.ID)
	assert.Equal(t, reservations.StatusActive, result.Reservation.Status)
	assert.Equal(t, user.Username, result.User.Username)
	require.Len(t, result.Books, 1)
	assert.Equal(t, book.ID, result.Books[0].ID)
	assert.Equal(t, 1, result.Books[0].AvailableCopies)
}

func Test_QueryHandler_Handle_UnknownReservation(t *testing.T) {
	// setup
	handler := reservationdetails.NewQueryHandler(fixtures.NewMemStore(t))
	reservationID := uuid.New()

	// act
	_, err := handler.Handle(context.Background(), reservationdetails.BuildQuery(reservationID))

	// assert
	var notFound reservations.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, reservations.EntityReservation, notFound.Entity)
	assert.Equal(t, reservationID.String(), notFound.ID)
}
