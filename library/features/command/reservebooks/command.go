package reservebooks

import (
	"slices"

	"github.com/google/uuid"
)

const (
	commandType = "ReserveBooks"
)

// Command represents the intent of a user to reserve a set of books.
type Command struct {
	UserID  uuid.UUID
	BookIDs []uuid.UUID
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(userID uuid.UUID, bookIDs ...uuid.UUID) Command {
	return Command{
		UserID:  userID,
		BookIDs: slices.Clone(bookIDs),
	}
}
