package reservations

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_BuildBook_Success(t *testing.T) {
	createdAt := time.Unix(0, 0).UTC()

	book, err := BuildBook(uuid.New(), " Domain-Driven Design ", "Eric Evans", "9780321125217", 5, createdAt)

	assert.NoError(t, err, "valid input should build a book")
	assert.Equal(t, "Domain-Driven Design", book.Title, "title should be trimmed")
	assert.Equal(t, 5, book.TotalCopies)
	assert.Equal(t, 5, book.AvailableCopies, "a new book should have all copies available")
	assert.Equal(t, createdAt, book.UpdatedAt)
}

//nolint:funlen
func Test_BuildBook_ErrorCases(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		author      string
		isbn        string
		totalCopies int
		expectedErr error
	}{
		{name: "empty title", title: " ", author: "A", isbn: "9780321125217", totalCopies: 1, expectedErr: ErrEmptyTitle},
		{name: "empty author", title: "T", author: "", isbn: "9780321125217", totalCopies: 1, expectedErr: ErrEmptyAuthor},
		{name: "isbn too short", title: "T", author: "A", isbn: "978032112521", totalCopies: 1, expectedErr: ErrInvalidISBN},
		{name: "isbn with dashes", title: "T", author: "A", isbn: "978-0321125217", totalCopies: 1, expectedErr: ErrInvalidISBN},
		{name: "isbn with letters", title: "T", author: "A", isbn: "978032112521X", totalCopies: 1, expectedErr: ErrInvalidISBN},
		{name: "zero copies", title: "T", author: "A", isbn: "9780321125217", totalCopies: 0, expectedErr: ErrInvalidTotalCopies},
		{name: "negative copies", title: "T", author: "A", isbn: "9780321125217", totalCopies: -3, expectedErr: ErrInvalidTotalCopies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBook(uuid.New(), tt.title, tt.author, tt.isbn, tt.totalCopies, time.Now())

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.True(t, IsClientError(err), "validation errors should be client errors")
		})
	}
}

func Test_BuildBook_ReportsAllViolations(t *testing.T) {
	_, err := BuildBook(uuid.New(), "", "", "123", 0, time.Now())

	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.ErrorIs(t, err, ErrEmptyAuthor)
	assert.ErrorIs(t, err, ErrInvalidISBN)
	assert.ErrorIs(t, err, ErrInvalidTotalCopies)
}

func Test_BuildUser(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		email       string
		expectedErr error
	}{
		{name: "valid", username: "jdoe", email: "John.Doe@Example.com"},
		{name: "username too short", username: "jd", email: "jd@example.com", expectedErr: ErrInvalidUsername},
		{name: "username too long", username: string(make([]byte, 51)), email: "x@example.com", expectedErr: ErrInvalidUsername},
		{name: "invalid email", username: "jdoe", email: "not-an-email", expectedErr: ErrInvalidEmail},
		{name: "email with display name", username: "jdoe", email: "John <john@example.com>", expectedErr: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := BuildUser(uuid.New(), tt.username, tt.email, time.Now())

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "john.doe@example.com", user.Email, "email should be normalized to lower case")
		})
	}
}

func Test_Status_Transitions(t *testing.T) {
	assert.True(t, StatusActive.CanTransitionTo(StatusCanceled))
	assert.True(t, StatusActive.CanTransitionTo(StatusExpired))
	assert.False(t, StatusActive.CanTransitionTo(StatusActive), "ACTIVE->ACTIVE is not a transition")
	assert.False(t, StatusCanceled.CanTransitionTo(StatusExpired), "terminal states have no way out")
	assert.False(t, StatusExpired.CanTransitionTo(StatusCanceled), "terminal states have no way out")
	assert.False(t, StatusCanceled.CanTransitionTo(StatusActive), "status never reverses")
}

func Test_NormalizeBookSet(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("sorts ascending", func(t *testing.T) {
		sorted, err := NormalizeBookSet([]uuid.UUID{c, a, b})

		assert.NoError(t, err)
		assert.Equal(t, SortBookIDs([]uuid.UUID{a, b, c}), sorted)
		assert.Len(t, sorted, 3)
	})

	t.Run("does not modify the input", func(t *testing.T) {
		input := []uuid.UUID{c, a}
		_, err := NormalizeBookSet(input)

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c, a}, input)
	})

	t.Run("rejects invalid sets", func(t *testing.T) {
		for name, ids := range map[string][]uuid.UUID{
			"empty":     {},
			"too many":  {a, b, c, d},
			"duplicate": {a, b, a},
		} {
			_, err := NormalizeBookSet(ids)
			assert.ErrorIs(t, err, ErrInvalidBookSet, name)
		}
	})
}

func Test_TypedErrors_MatchSentinels(t *testing.T) {
	bookID := uuid.New()

	notFound := NewNotFoundError(EntityBook, bookID)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.Equal(t, "book not found with id "+bookID.String(), notFound.Error())

	stock := error(InsufficientStockError{BookID: bookID, Title: "Refactoring"})
	assert.ErrorIs(t, stock, ErrInsufficientStock)
	assert.Equal(t, "book 'Refactoring' is not available for reservation", stock.Error())

	var target InsufficientStockError
	assert.True(t, errors.As(errors.Join(errors.New("context"), stock), &target))
	assert.Equal(t, bookID, target.BookID, "the unavailable book should be identifiable")

	transition := InvalidTransitionError{ReservationID: uuid.New(), From: StatusCanceled, To: StatusCanceled}
	assert.ErrorIs(t, transition, ErrInvalidTransition)
	assert.False(t, IsClientError(ErrOverRelease), "over-release is an internal invariant violation")
}

func Test_BuildPage(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	page := BuildPage(all, PageRequest{Number: 1, Size: 2})
	assert.Equal(t, []int{3, 4}, page.Items)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages())

	beyond := BuildPage(all, PageRequest{Number: 9, Size: 2})
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items, "an empty page should still have a non-nil item list")

	_, err := BuildPageRequest(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	request, err := BuildPageRequest(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, DefaultPageSize, request.Size)
}

func Test_BuildPageRequest_RejectsPageNumbersWhoseOffsetOverflows(t *testing.T) {
	// act
	_, err := BuildPageRequest(184467440737095516, 100)

	// assert
	assert.ErrorIs(t, err, ErrInvalidPageRequest, "an offset beyond math.MaxInt should be a client error")
	assert.True(t, IsClientError(err))

	largest, err := BuildPageRequest(math.MaxInt/MaxPageSize, MaxPageSize)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, largest.Offset(), 0, "the largest accepted page should have a non-negative offset")
	assert.Empty(t, BuildPage([]int{1, 2, 3}, largest).Items)
}
