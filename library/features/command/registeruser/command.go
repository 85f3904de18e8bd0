package registeruser

const (
	commandType = "RegisterUser"
)

// Command represents the intent to register a new user.
type Command struct {
	Username string
	Email    string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(username, email string) Command {
	return Command{
		Username: username,
		Email:    email,
	}
}
