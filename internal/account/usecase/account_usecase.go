package usecase

import (
	"context"
	"fmt"
	"io"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	cryptoService "github.com/allisson/credentials/internal/crypto/service"
	"github.com/allisson/credentials/internal/database"
	apperrors "github.com/allisson/credentials/internal/errors"
)

// accountUseCase implements UseCase.
type accountUseCase struct {
	txManager   database.TxManager
	repo        CredentialRepository
	keyExchange cryptoService.KeyExchange
	serverKey   *cryptoDomain.KeyPair
	random      io.Reader
}

// NewAccountUseCase creates a UseCase bound to the server key pair. txManager
// must be the same lock the repository uses.
func NewAccountUseCase(
	txManager database.TxManager,
	repo CredentialRepository,
	keyExchange cryptoService.KeyExchange,
	serverKey *cryptoDomain.KeyPair,
) UseCase {
	return &accountUseCase{
		txManager:   txManager,
		repo:        repo,
		keyExchange: keyExchange,
		serverKey:   serverKey,
	}
}

// PublicKey returns the announced server public key.
func (a *accountUseCase) PublicKey(ctx context.Context) string {
	return a.serverKey.PublicKeyText
}

// CreateUser decrypts the registration and inserts a salted record.
func (a *accountUseCase) CreateUser(ctx context.Context, input *accountDomain.RegisterInput) error {
	return a.txManager.WithTx(ctx, func(ctx context.Context) error {
		email, err := a.decrypt(input.Email, "email")
		if err != nil {
			return err
		}

		_, err = a.repo.GetByEmail(ctx, email)
		if err == nil {
			return accountDomain.ErrUserAlreadyExists
		}
		if !apperrors.Is(err, accountDomain.ErrCredentialNotFound) {
			return err
		}

		password, err := a.decrypt(input.Password, "password")
		if err != nil {
			return err
		}
		name, err := a.decrypt(input.Name, "name")
		if err != nil {
			return err
		}

		salt, err := accountDomain.NewSalt(a.random)
		if err != nil {
			return err
		}

		record := &accountDomain.CredentialRecord{
			Name:         name,
			Email:        email,
			PasswordHash: accountDomain.HashPassword(password, salt),
			Salt:         salt,
		}
		return a.repo.Create(ctx, record)
	})
}

// Login checks the credentials and encrypts the profile for the requester.
func (a *accountUseCase) Login(
	ctx context.Context,
	input *accountDomain.LoginInput,
) (*accountDomain.Profile, error) {
	var profile *accountDomain.Profile

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		records, err := a.repo.List(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return accountDomain.ErrNoUsers
		}

		email, err := a.decrypt(input.Email, "email")
		if err != nil {
			return err
		}

		record, found := accountDomain.FindByEmail(records, email)
		if !found {
			return accountDomain.ErrInvalidCredentials
		}

		password, err := a.decrypt(input.Password, "password")
		if err != nil {
			return err
		}
		if !record.VerifyPassword(password) {
			return accountDomain.ErrInvalidCredentials
		}

		profile, err = a.sealProfile(record, input.PublicKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// Ping reports whether the credential store is reachable.
func (a *accountUseCase) Ping(ctx context.Context) error {
	return a.repo.Ping(ctx)
}

func (a *accountUseCase) decrypt(ciphertext, field string) (string, error) {
	plaintext, err := a.keyExchange.Decrypt(ciphertext, a.serverKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", accountDomain.ErrInvalidPayload, field, err)
	}
	return plaintext, nil
}

func (a *accountUseCase) sealProfile(
	record *accountDomain.CredentialRecord,
	requesterKey string,
) (*accountDomain.Profile, error) {
	name, err := a.keyExchange.Encrypt(record.Name, requesterKey)
	if err != nil {
		return nil, sealError(err)
	}
	email, err := a.keyExchange.Encrypt(record.Email, requesterKey)
	if err != nil {
		return nil, sealError(err)
	}
	return &accountDomain.Profile{Name: name, Email: email}, nil
}

func sealError(err error) error {
	if apperrors.Is(err, cryptoDomain.ErrInvalidPublicKey) || apperrors.Is(err, cryptoDomain.ErrPayloadTooLarge) {
		return fmt.Errorf("%w: %w", accountDomain.ErrInvalidRequesterKey, err)
	}
	return apperrors.Wrap(err, "failed to encrypt profile")
}
