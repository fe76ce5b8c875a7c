package domain

import (
	"github.com/allisson/credentials/internal/errors"
)

// Public replies of the auth service.
const (
	MessageUserCreated   = "Created new user"
	MessageCreateFailed  = "Error creating new user"
	MessageLoginFailed   = "Error logging in"
	MessageNoUsers       = "No users found"
	MessageInvalidSecret = "Invalid encrypted payload"
	MessageInvalidKey    = "Invalid public key"
)

// Account errors. Those built with NewPublic carry the exact message returned
// to the caller; unknown email and wrong password share ErrInvalidCredentials
// so a login reply never reveals whether an email is registered.
var (
	// ErrCredentialNotFound indicates no record matches an email. Internal only.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrUserAlreadyExists indicates the email is already registered.
	ErrUserAlreadyExists = errors.NewPublic(errors.ErrConflict, MessageCreateFailed)

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.NewPublic(errors.ErrUnauthorized, MessageLoginFailed)

	// ErrNoUsers indicates a login against an empty store.
	ErrNoUsers = errors.NewPublic(errors.ErrBadRequest, MessageNoUsers)

	// ErrInvalidPayload indicates an encrypted field could not be decrypted.
	ErrInvalidPayload = errors.NewPublic(errors.ErrInvalidInput, MessageInvalidSecret)

	// ErrInvalidRequesterKey indicates the login requester's public key is unusable.
	ErrInvalidRequesterKey = errors.NewPublic(errors.ErrInvalidInput, MessageInvalidKey)
)
