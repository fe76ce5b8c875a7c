package dispatcher

import (
	"github.com/allisson/credentials/internal/errors"
)

// Notifications shown to the interactive user.
const (
	MessageServerKey          = "Server returned key"
	MessageNoServerKey        = "No public server key found"
	MessageNoCredentials      = "No credentials found"
	MessageNoLoginCredentials = "No login credentials found"
	MessageNoConnection       = "No connection to server"
	MessageEncryptFailed      = "Credentials could not be encrypted for the server"
)

var (
	// ErrRequestNeedsPayload indicates CreateUser or Login was requested without
	// attaching its payload.
	ErrRequestNeedsPayload = errors.Wrap(errors.ErrInvalidInput, "request kind needs a payload")

	// ErrNoServerKey indicates a data-bearing request ran before key exchange.
	ErrNoServerKey = errors.New("no public server key")

	// ErrMissingPayload indicates a data-bearing request reached the slot
	// without a payload.
	ErrMissingPayload = errors.New("no payload attached")
)
