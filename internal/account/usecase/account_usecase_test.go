package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/account/repository"
	"github.com/allisson/credentials/internal/account/usecase"
	"github.com/allisson/credentials/internal/account/usecase/mocks"
	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	cryptoService "github.com/allisson/credentials/internal/crypto/service"
	"github.com/allisson/credentials/internal/database"
	apperrors "github.com/allisson/credentials/internal/errors"
)

var (
	keysOnce    sync.Once
	keyExchange *cryptoService.RSAKeyExchange
	serverKey   *cryptoDomain.KeyPair
	clientKey   *cryptoDomain.KeyPair
)

func setupKeys(t *testing.T) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		keyExchange, err = cryptoService.NewRSAKeyExchange(cryptoDomain.DefaultKeyBits)
		if err != nil {
			panic(err)
		}
		if serverKey, err = keyExchange.GenerateKeyPair(); err != nil {
			panic(err)
		}
		if clientKey, err = keyExchange.GenerateKeyPair(); err != nil {
			panic(err)
		}
	})
}

type fixture struct {
	useCase usecase.UseCase
	repo    *repository.FileCredentialRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	setupKeys(t)

	txManager := database.NewSerialTxManager(nil)
	repo, err := repository.NewFileCredentialRepository(t.TempDir(), txManager)
	require.NoError(t, err)

	return &fixture{
		useCase: usecase.NewAccountUseCase(txManager, repo, keyExchange, serverKey),
		repo:    repo,
	}
}

func seal(t *testing.T, plaintext string) string {
	t.Helper()
	ciphertext, err := keyExchange.Encrypt(plaintext, serverKey.PublicKeyText)
	require.NoError(t, err)
	return ciphertext
}

func registration(t *testing.T, name, email, password string) *accountDomain.RegisterInput {
	t.Helper()
	return &accountDomain.RegisterInput{
		Name:     seal(t, name),
		Email:    seal(t, email),
		Password: seal(t, password),
	}
}

func loginAttempt(t *testing.T, email, password string) *accountDomain.LoginInput {
	t.Helper()
	return &accountDomain.LoginInput{
		Email:     seal(t, email),
		Password:  seal(t, password),
		PublicKey: clientKey.PublicKeyText,
	}
}

func open(t *testing.T, ciphertext string) string {
	t.Helper()
	plaintext, err := keyExchange.Decrypt(ciphertext, clientKey)
	require.NoError(t, err)
	return plaintext
}

func TestAccountUseCase_PublicKey(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, serverKey.PublicKeyText, f.useCase.PublicKey(context.Background()))
}

func TestAccountUseCase_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.useCase.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "hunter2pass")))

	t.Run("Success_EmailCaseInsensitive", func(t *testing.T) {
		profile, err := f.useCase.Login(ctx, loginAttempt(t, "ALICE@EXAMPLE.COM", "hunter2pass"))
		require.NoError(t, err)
		assert.Equal(t, "Alice", open(t, profile.Name))
		assert.Equal(t, "alice@example.com", open(t, profile.Email))
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		profile, err := f.useCase.Login(ctx, loginAttempt(t, "alice@example.com", "wrongpass"))
		assert.Nil(t, profile)
		assert.ErrorIs(t, err, accountDomain.ErrInvalidCredentials)
		assert.Equal(t, "Error logging in", err.Error())
	})

	t.Run("Error_UnknownEmailSameMessage", func(t *testing.T) {
		_, wrongPassword := f.useCase.Login(ctx, loginAttempt(t, "alice@example.com", "wrongpass"))
		_, unknownEmail := f.useCase.Login(ctx, loginAttempt(t, "bob@example.com", "anything1"))

		assert.ErrorIs(t, unknownEmail, accountDomain.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("Success_PasswordNotStoredInClear", func(t *testing.T) {
		records, err := f.repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Len(t, records[0].Salt, accountDomain.SaltSize)
		assert.NotContains(t, string(records[0].PasswordHash), "hunter2pass")
		assert.Equal(t, accountDomain.HashPassword("hunter2pass", records[0].Salt), records[0].PasswordHash)
	})
}

func TestAccountUseCase_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_DuplicateAnyCase", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.useCase.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "hunter2pass")))

		for _, email := range []string{"alice@example.com", "ALICE@example.com", "Alice@Example.Com"} {
			err := f.useCase.CreateUser(ctx, registration(t, "Other", email, "otherpass1"))
			assert.ErrorIs(t, err, accountDomain.ErrUserAlreadyExists)
			assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		}

		records, err := f.repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Success_FreshSaltPerRegistration", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.useCase.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "samepass1")))
		require.NoError(t, f.useCase.CreateUser(ctx, registration(t, "Bob", "bob@example.com", "samepass1")))

		records, err := f.repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.NotEqual(t, records[0].Salt, records[1].Salt)
		assert.NotEqual(t, records[0].PasswordHash, records[1].PasswordHash)
	})

	t.Run("Error_UndecryptableEmail", func(t *testing.T) {
		f := newFixture(t)
		input := registration(t, "Alice", "alice@example.com", "hunter2pass")
		input.Email = "bm90LWNpcGhlcnRleHQ="

		err := f.useCase.CreateUser(ctx, input)
		assert.ErrorIs(t, err, accountDomain.ErrInvalidPayload)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

		msg, ok := apperrors.PublicMessage(err)
		assert.True(t, ok)
		assert.Equal(t, accountDomain.MessageInvalidSecret, msg)
	})

	t.Run("Error_UndecryptablePasswordLeavesStoreUntouched", func(t *testing.T) {
		f := newFixture(t)
		input := registration(t, "Alice", "alice@example.com", "hunter2pass")
		input.Password = "%%%"

		err := f.useCase.CreateUser(ctx, input)
		assert.ErrorIs(t, err, accountDomain.ErrInvalidPayload)

		records, err := f.repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Success_ConcurrentSameEmailAdmitsOne", func(t *testing.T) {
		f := newFixture(t)

		inputs := make([]*accountDomain.RegisterInput, 6)
		for i := range inputs {
			inputs[i] = registration(t, "Carol", "carol@example.com", "hunter2pass")
		}

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)
		for _, input := range inputs {
			wg.Add(1)
			go func(input *accountDomain.RegisterInput) {
				defer wg.Done()
				err := f.useCase.CreateUser(ctx, input)
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, accountDomain.ErrUserAlreadyExists):
					conflicts.Add(1)
				}
			}(input)
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(len(inputs)-1), conflicts.Load())
	})
}

func TestAccountUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_EmptyStore", func(t *testing.T) {
		f := newFixture(t)

		profile, err := f.useCase.Login(ctx, loginAttempt(t, "alice@example.com", "hunter2pass"))
		assert.Nil(t, profile)
		assert.ErrorIs(t, err, accountDomain.ErrNoUsers)
		assert.Equal(t, "No users found", err.Error())
	})

	t.Run("Error_EmptyStoreCheckedBeforeDecrypt", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.useCase.Login(ctx, &accountDomain.LoginInput{Email: "garbage", Password: "garbage"})
		assert.ErrorIs(t, err, accountDomain.ErrNoUsers)
	})

	t.Run("Error_InvalidRequesterKey", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.useCase.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "hunter2pass")))

		input := loginAttempt(t, "alice@example.com", "hunter2pass")
		input.PublicKey = "not-a-key"

		_, err := f.useCase.Login(ctx, input)
		assert.ErrorIs(t, err, accountDomain.ErrInvalidRequesterKey)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPublicKey)
	})
}

func TestAccountUseCase_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	setupKeys(t)
	storeErr := errors.New("disk unavailable")

	t.Run("CreateUser_LookupFailure", func(t *testing.T) {
		repo := &mocks.MockCredentialRepository{}
		uc := usecase.NewAccountUseCase(database.NewSerialTxManager(nil), repo, keyExchange, serverKey)

		repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr).Once()

		err := uc.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "hunter2pass"))
		assert.ErrorIs(t, err, storeErr)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("CreateUser_RunsInsideLock", func(t *testing.T) {
		repo := &mocks.MockCredentialRepository{}
		txManager := database.NewSerialTxManager(nil)
		uc := usecase.NewAccountUseCase(txManager, repo, keyExchange, serverKey)

		holdsLock := mock.MatchedBy(func(ctx context.Context) bool {
			return database.HoldsLock(ctx, txManager)
		})
		repo.On("GetByEmail", holdsLock, "alice@example.com").Return(nil, accountDomain.ErrCredentialNotFound).Once()
		repo.On("Create", holdsLock, mock.MatchedBy(func(record *accountDomain.CredentialRecord) bool {
			return record.Name == "Alice" && record.VerifyPassword("hunter2pass")
		})).Return(nil).Once()

		require.NoError(t, uc.CreateUser(ctx, registration(t, "Alice", "alice@example.com", "hunter2pass")))
		repo.AssertExpectations(t)
	})

	t.Run("Login_ListFailure", func(t *testing.T) {
		repo := &mocks.MockCredentialRepository{}
		uc := usecase.NewAccountUseCase(database.NewSerialTxManager(nil), repo, keyExchange, serverKey)

		repo.On("List", mock.Anything).Return(nil, storeErr).Once()

		_, err := uc.Login(ctx, loginAttempt(t, "alice@example.com", "hunter2pass"))
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("Ping", func(t *testing.T) {
		repo := &mocks.MockCredentialRepository{}
		uc := usecase.NewAccountUseCase(database.NewSerialTxManager(nil), repo, keyExchange, serverKey)

		repo.On("Ping", ctx).Return(storeErr).Once()
		assert.ErrorIs(t, uc.Ping(ctx), storeErr)
	})
}
