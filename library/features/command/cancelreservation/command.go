package cancelreservation

import "github.com/google/uuid"

const (
	commandType = "CancelReservation"
)

// Command represents the intent to cancel a reservation.
type Command struct {
	ReservationID uuid.UUID
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID) Command {
	return Command{ReservationID: reservationID}
}
