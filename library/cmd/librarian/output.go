package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	exitOK            = 0
	exitClientError   = 1
	exitInternalError = 2

	internalErrorMessage = "An unexpected error occurred. Please try again later."
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errUsage = errors.New("invalid usage")

func usageError(err error) error {
	return fmt.Errorf("%w: %w", errUsage, err)
}

// errorResponse is the JSON body printed for failed subcommands.
type errorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

// statusOf maps an error to the HTTP-like status carried in the error body.
func statusOf(err error) int {
	switch {
	case errors.Is(err, reservations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservations.ErrDuplicateISBN),
		errors.Is(err, reservations.ErrDuplicateUsername),
		errors.Is(err, reservations.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, errUsage), reservations.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func exitCodeOf(status int) int {
	if status >= http.StatusInternalServerError {
		return exitInternalError
	}

	return exitClientError
}

// writeError prints the error body and returns the exit code.
// Internal errors are not exposed, they are logged instead.
func writeError(w io.Writer, err error, now time.Time) int {
	status := statusOf(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = internalErrorMessage
	}

	_ = writeJSON(w, errorResponse{ //nolint:errcheck // nothing left to report to
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: now.UTC(),
	})

	return exitCodeOf(status)
}
