// Package usecase implements the auth service operations on top of the credential store
// and the server key pair.
package usecase

import (
	"context"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
)

// CredentialRepository defines persistence operations for credential records.
// Implementations must honor the transaction or lock carried by ctx.
type CredentialRepository interface {
	// List returns every stored record; empty when the store holds nothing.
	List(ctx context.Context) ([]*accountDomain.CredentialRecord, error)

	// GetByEmail matches case-insensitively. Returns ErrCredentialNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*accountDomain.CredentialRecord, error)

	// Create stores a new record. Returns ErrUserAlreadyExists on an email collision.
	Create(ctx context.Context, record *accountDomain.CredentialRecord) error

	Ping(ctx context.Context) error
}

// UseCase defines the operations exposed by the auth service.
type UseCase interface {
	// PublicKey returns the server public key announced to clients.
	PublicKey(ctx context.Context) string

	// CreateUser decrypts a registration and stores a new credential record.
	//
	// The whole operation runs inside one critical section of the store lock so
	// two registrations for the same email cannot both succeed. Returns
	// ErrUserAlreadyExists when the email is taken (compared case-insensitively)
	// and ErrInvalidPayload when a field was not encrypted for the server key.
	CreateUser(ctx context.Context, input *accountDomain.RegisterInput) error

	// Login verifies an encrypted email/password pair and returns the matching
	// profile encrypted under input.PublicKey.
	//
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	// An empty store returns ErrNoUsers.
	Login(ctx context.Context, input *accountDomain.LoginInput) (*accountDomain.Profile, error)

	// Ping reports whether the credential store is reachable.
	Ping(ctx context.Context) error
}
