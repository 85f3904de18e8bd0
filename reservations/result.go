package reservations

import (
	"context"

	"github.com/google/uuid"
)

// ReservationResult is a reservation materialized with its user and the current state of its books.
type ReservationResult struct {
	Reservation Reservation `json:"reservation"`
	User        User        `json:"user"`
	Books       Books       `json:"books"`
}

// ReservationResults is a slice of ReservationResult.
type ReservationResults = []ReservationResult

// Materialize resolves the user and the books of a reservation.
func Materialize(ctx context.Context, reader Reader, reservation Reservation) (ReservationResult, error) {
	user, err := reader.GetUser(ctx, reservation.UserID)
	if err != nil {
		return ReservationResult{}, err
	}

	books := make(Books, 0, len(reservation.BookIDs))

	for _, bookID := range reservation.BookIDs {
		book, getErr := reader.GetBook(ctx, bookID)
		if getErr != nil {
			return ReservationResult{}, getErr
		}

		books = append(books, book)
	}

	return ReservationResult{
		Reservation: reservation,
		User:        user,
		Books:       books,
	}, nil
}

// MaterializeAll resolves every reservation of a listing.
// Users and books referenced more than once are loaded once.
func MaterializeAll(ctx context.Context, reader Reader, list Reservations) (ReservationResults, error) {
	results := make(ReservationResults, 0, len(list))
	cache := cachingReader{Reader: reader, users: map[uuid.UUID]User{}, books: map[uuid.UUID]Book{}}

	for _, reservation := range list {
		result, err := Materialize(ctx, &cache, reservation)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}

// cachingReader memoizes user and book lookups for the duration of one MaterializeAll call.
type cachingReader struct {
	Reader
	users map[uuid.UUID]User
	books map[uuid.UUID]Book
}

func (c *cachingReader) GetUser(ctx context.Context, userID uuid.UUID) (User, error) {
	if user, ok := c.users[userID]; ok {
		return user, nil
	}

	user, err := c.Reader.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}

	c.users[userID] = user

	return user, nil
}

func (c *cachingReader) GetBook(ctx context.Context, bookID uuid.UUID) (Book, error) {
	if book, ok := c.books[bookID]; ok {
		return book, nil
	}

	book, err := c.Reader.GetBook(ctx, bookID)
	if err != nil {
		return Book{}, err
	}

	c.books[bookID] = book

	return book, nil
}
