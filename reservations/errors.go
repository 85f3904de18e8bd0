package reservations

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Business rule violations.
var (
	// ErrNotFound is returned when a book, user, or reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a book has fewer available copies than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrLimitExceeded is returned when a reservation request names fewer than 1 or more than MaxBooksPerReservation books.
	ErrLimitExceeded = errors.New("limit of books in reservation is 3")

	// ErrInvalidBookSet is returned when a book set is empty, too large, or contains duplicates.
	ErrInvalidBookSet = errors.New("book set must contain 1 to 3 distinct books")

	// ErrInvalidTransition is returned when a terminal reservation is targeted by cancel or expire.
	ErrInvalidTransition = errors.New("invalid reservation status transition")

	// ErrOverRelease is returned when a release would push available copies above total copies.
	// It signals a double release upstream and must never be corrected silently.
	ErrOverRelease = errors.New("release would exceed total copies")

	// ErrInvalidCopyCount is returned when a ledger operation is asked to move less than one copy.
	ErrInvalidCopyCount = errors.New("copy count must be positive")

	// ErrTransientFailure marks store failures that may succeed when retried (serialization failures, deadlocks).
	ErrTransientFailure = errors.New("transient store failure")
)

// Validation and uniqueness errors.
var (
	ErrEmptyTitle         = errors.New("title must not be empty")
	ErrEmptyAuthor        = errors.New("author must not be empty")
	ErrInvalidISBN        = errors.New("isbn must consist of exactly 13 digits")
	ErrInvalidTotalCopies = errors.New("total copies must be positive")
	ErrInvalidUsername    = errors.New("username must be between 3 and 50 characters")
	ErrInvalidEmail       = errors.New("email must be a valid email address")
	ErrDuplicateISBN      = errors.New("isbn already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidPageRequest = errors.New("page number must not be negative and page size must be between 1 and 100")
)

// Infrastructure errors raised by store implementations.
var (
	// ErrNilDatabaseConnection is returned when a nil database connection is provided.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrBuildingQueryFailed is returned when building an SQL query fails.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when a read query fails.
	ErrQueryingFailed = errors.New("querying records failed")

	// ErrScanningDBRowFailed is returned when scanning a database row fails.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrExecFailed is returned when a write statement fails.
	ErrExecFailed = errors.New("executing statement failed")

	// ErrGettingRowsAffectedFailed is returned when getting the number of affected rows fails.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrBeginTxFailed is returned when a transaction cannot be started.
	ErrBeginTxFailed = errors.New("beginning transaction failed")

	// ErrCommitFailed is returned when a transaction cannot be committed.
	ErrCommitFailed = errors.New("committing transaction failed")
)

// Entity names used in NotFoundError.
const (
	EntityBook        = "book"
	EntityUser        = "user"
	EntityReservation = "reservation"
)

// NotFoundError names the missing record. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError builds a NotFoundError for an entity identified by a uuid.
func NewNotFoundError(entity string, id uuid.UUID) NotFoundError {
	return NotFoundError{Entity: entity, ID: id.String()}
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %s", e.Entity, e.ID)
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError names the book that could not be reserved. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	BookID uuid.UUID
	Title  string
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("book '%s' is not available for reservation", e.Title)
}

func (e InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InvalidTransitionError describes a rejected status change. It matches ErrInvalidTransition.
type InvalidTransitionError struct {
	ReservationID uuid.UUID
	From          Status
	To            Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("reservation %s cannot move from %s to %s", e.ReservationID, e.From, e.To)
}

func (e InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsClientError reports whether err is caused by the request rather than by the system.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrInsufficientStock,
		ErrLimitExceeded,
		ErrInvalidBookSet,
		ErrInvalidTransition,
		ErrInvalidCopyCount,
		ErrEmptyTitle,
		ErrEmptyAuthor,
		ErrInvalidISBN,
		ErrInvalidTotalCopies,
		ErrInvalidUsername,
		ErrInvalidEmail,
		ErrDuplicateISBN,
		ErrDuplicateUsername,
		ErrDuplicateEmail,
		ErrInvalidPageRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
