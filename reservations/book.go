package reservations

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const isbnLength = 13

// Book is a title with a finite pool of lendable copies.
//
// AvailableCopies is the authoritative counter of how many more active reservations may reference the book.
// It is maintained incrementally by the inventory ledger and never assigned anywhere else.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BuildBook validates the input and creates a Book with all copies available.
func BuildBook(id uuid.UUID, title, author, isbn string, totalCopies int, createdAt time.Time) (Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	isbn = strings.TrimSpace(isbn)

	var errs []error

	if title == "" {
		errs = append(errs, ErrEmptyTitle)
	}

	if author == "" {
		errs = append(errs, ErrEmptyAuthor)
	}

	if !IsValidISBN(isbn) {
		errs = append(errs, ErrInvalidISBN)
	}

	if totalCopies < 1 {
		errs = append(errs, ErrInvalidTotalCopies)
	}

	if len(errs) > 0 {
		return Book{}, errors.Join(errs...)
	}

	return Book{
		ID:              id,
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// IsValidISBN reports whether isbn consists of exactly 13 digits.
func IsValidISBN(isbn string) bool {
	if len(isbn) != isbnLength {
		return false
	}

	for _, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// SameAs compares books by identity.
func (b Book) SameAs(other Book) bool {
	return b.ID == other.ID
}

// HasAvailableCopies reports whether at least count copies can be reserved.
func (b Book) HasAvailableCopies(count int) bool {
	return b.AvailableCopies >= count
}

// Books is a slice of Book.
type Books = []Book
