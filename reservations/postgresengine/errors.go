package postgresengine

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	constraintBooksISBN          = "books_isbn_key"
	constraintUsersUsername      = "users_username_key"
	constraintUsersEmail         = "users_email_lower_key"
)

// sqlState extracts the SQLSTATE code and the violated constraint from a pgx or lib/pq error.
func sqlState(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}

	return "", ""
}

// classify marks errors worth retrying with reservations.ErrTransientFailure.
func classify(err error) error {
	code, _ := sqlState(err)

	switch code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return errors.Join(reservations.ErrTransientFailure, err)
	default:
		return err
	}
}

// duplicateError maps a unique violation to the matching sentinel, or returns nil.
func duplicateError(err error) error {
	code, constraint := sqlState(err)
	if code != sqlStateUniqueViolation {
		return nil
	}

	switch constraint {
	case constraintBooksISBN:
		return reservations.ErrDuplicateISBN
	case constraintUsersUsername:
		return reservations.ErrDuplicateUsername
	case constraintUsersEmail:
		return reservations.ErrDuplicateEmail
	default:
		return nil
	}
}
