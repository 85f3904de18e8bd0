package expirereservations

import "time"

const (
	commandType = "ExpireReservations"
)

// Command represents one run of the expiry sweep as of Now.
type Command struct {
	Now time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command for a sweep as of now.
func BuildCommand(now time.Time) Command {
	return Command{Now: now}
}
