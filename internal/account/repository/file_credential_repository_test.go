package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/database"
)

func newTestRecord(name, email string) *domain.CredentialRecord {
	salt := bytes.Repeat([]byte{0x03}, domain.SaltSize)
	return &domain.CredentialRecord{
		Name:         name,
		Email:        email,
		PasswordHash: domain.HashPassword("hunter2pass", salt),
		Salt:         salt,
	}
}

func newFileRepository(t *testing.T) *FileCredentialRepository {
	t.Helper()
	repo, err := NewFileCredentialRepository(t.TempDir(), database.NewSerialTxManager(nil))
	require.NoError(t, err)
	return repo
}

func TestNewFileCredentialRepository(t *testing.T) {
	t.Run("Success_InitializesEmptyCollection", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")

		repo, err := NewFileCredentialRepository(dir, database.NewSerialTxManager(nil))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, UsersFileName))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
		assert.Equal(t, filepath.Join(dir, UsersFileName), repo.Path())
		assert.NoError(t, repo.Ping(context.Background()))
	})

	t.Run("Success_KeepsExistingCollection", func(t *testing.T) {
		dir := t.TempDir()
		existing := `[{"name":"Alice","email":"alice@example.com","passwordHash":"AQID","salt":"BAUG"}]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFileName), []byte(existing), 0o600))

		repo, err := NewFileCredentialRepository(dir, database.NewSerialTxManager(nil))
		require.NoError(t, err)

		records, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Alice", records[0].Name)
		assert.Equal(t, []byte{1, 2, 3}, records[0].PasswordHash)
		assert.Equal(t, []byte{4, 5, 6}, records[0].Salt)
	})
}

func TestFileCredentialRepository_List(t *testing.T) {
	t.Run("Success_Empty", func(t *testing.T) {
		repo := newFileRepository(t)

		records, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Success_EmptyFileTreatedAsEmptyStore", func(t *testing.T) {
		repo := newFileRepository(t)
		require.NoError(t, os.WriteFile(repo.Path(), nil, 0o600))

		records, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Error_CorruptCollection", func(t *testing.T) {
		repo := newFileRepository(t)
		require.NoError(t, os.WriteFile(repo.Path(), []byte("{not json"), 0o600))

		records, err := repo.List(context.Background())
		require.Error(t, err)
		assert.Nil(t, records)
		assert.Contains(t, err.Error(), "failed to decode credential store "+repo.Path())
	})
}

func TestFileCredentialRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PersistsInOrder", func(t *testing.T) {
		repo := newFileRepository(t)

		require.NoError(t, repo.Create(ctx, newTestRecord("Alice", "alice@example.com")))
		require.NoError(t, repo.Create(ctx, newTestRecord("Bob", "bob@example.com")))

		reopened, err := NewFileCredentialRepository(filepath.Dir(repo.Path()), database.NewSerialTxManager(nil))
		require.NoError(t, err)

		records, err := reopened.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "alice@example.com", records[0].Email)
		assert.Equal(t, "bob@example.com", records[1].Email)
		assert.True(t, records[1].VerifyPassword("hunter2pass"))
	})

	t.Run("Error_DuplicateEmailCaseInsensitive", func(t *testing.T) {
		repo := newFileRepository(t)
		require.NoError(t, repo.Create(ctx, newTestRecord("Alice", "alice@example.com")))

		err := repo.Create(ctx, newTestRecord("Impostor", "ALICE@Example.com"))
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

		records, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Success_NoTemporaryFilesLeft", func(t *testing.T) {
		repo := newFileRepository(t)
		require.NoError(t, repo.Create(ctx, newTestRecord("Alice", "alice@example.com")))

		entries, err := os.ReadDir(filepath.Dir(repo.Path()))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, UsersFileName, entries[0].Name())
	})

	t.Run("Success_ConcurrentDuplicatesAdmitOne", func(t *testing.T) {
		repo := newFileRepository(t)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Create(ctx, newTestRecord("Carol", "carol@example.com"))
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, domain.ErrUserAlreadyExists):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(7), conflicts.Load())
	})
}

func TestFileCredentialRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newFileRepository(t)
	require.NoError(t, repo.Create(ctx, newTestRecord("Alice", "Alice@Example.com")))

	record, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", record.Name)

	record, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.Nil(t, record)
}
