package reservations

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

// User is a registered patron who may hold reservations.
// Reservations reference their user by id, the user does not reference its reservations.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// BuildUser validates the input and creates a User.
// The email address is normalized to lower case because uniqueness is checked case-insensitively.
func BuildUser(id uuid.UUID, username, email string, createdAt time.Time) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var errs []error

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		errs = append(errs, ErrInvalidUsername)
	}

	if !IsValidEmail(email) {
		errs = append(errs, ErrInvalidEmail)
	}

	if len(errs) > 0 {
		return User{}, errors.Join(errs...)
	}

	return User{
		ID:        id,
		Username:  username,
		Email:     strings.ToLower(email),
		CreatedAt: createdAt,
	}, nil
}

// IsValidEmail reports whether email is a bare RFC 5322 address without a display name.
func IsValidEmail(email string) bool {
	address, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	return address.Address == email && strings.Contains(email, "@")
}

// SameAs compares users by identity.
func (u User) SameAs(other User) bool {
	return u.ID == other.ID
}

// Users is a slice of User.
type Users = []User
