package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/database"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var credentialColumns = []string{"name", "email", "password_hash", "salt"}

func TestPostgreSQLCredentialRepository_Create(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta("INSERT INTO credentials")

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)
		record := newTestRecord("Alice", "Alice@Example.com")

		mock.ExpectExec(insert).
			WithArgs(sqlmock.AnyArg(), "Alice", "Alice@Example.com", "alice@example.com", record.PasswordHash, record.Salt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_UniqueViolation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectExec(insert).WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, newTestRecord("Alice", "alice@example.com"))
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("Error_Other", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectExec(insert).WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, newTestRecord("Alice", "alice@example.com"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUserAlreadyExists)
		assert.Contains(t, err.Error(), "failed to create credential")
	})

	t.Run("Success_UsesTransactionFromContext", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)
		txManager := database.NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, newTestRecord("Alice", "alice@example.com"))
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLCredentialRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT name, email, password_hash, salt FROM credentials WHERE email_lower = $1")

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectQuery(query).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(credentialColumns).
				AddRow("Alice", "Alice@Example.com", []byte{1}, []byte{2}))

		record, err := repo.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Alice", record.Name)
		assert.Equal(t, []byte{1}, record.PasswordHash)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

		record, err := repo.GetByEmail(ctx, "alice@example.com")
		assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
		assert.Nil(t, record)
	})
}

func TestPostgreSQLCredentialRepository_List(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT name, email, password_hash, salt FROM credentials ORDER BY created_at, id")

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(credentialColumns).
			AddRow("Alice", "alice@example.com", []byte{1}, []byte{2}).
			AddRow("Bob", "bob@example.com", []byte{3}, []byte{4}))

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Bob", records[1].Name)
	})

	t.Run("Success_Empty", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(credentialColumns))

		records, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLCredentialRepository(db)

		mock.ExpectQuery(query).WillReturnError(errors.New("boom"))

		_, err := repo.List(ctx)
		assert.Error(t, err)
	})
}

func TestMySQLCredentialRepository_Create(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta("INSERT INTO credentials")

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLCredentialRepository(db)
		record := newTestRecord("Bob", "Bob@Example.com")

		mock.ExpectExec(insert).
			WithArgs(sqlmock.AnyArg(), "Bob", "Bob@Example.com", "bob@example.com", record.PasswordHash, record.Salt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DuplicateEntry", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLCredentialRepository(db)

		mock.ExpectExec(insert).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.Create(ctx, newTestRecord("Bob", "bob@example.com"))
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})
}

func TestMySQLCredentialRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT name, email, password_hash, salt FROM credentials WHERE email_lower = ?")

	db, mock := newMockDB(t)
	repo := NewMySQLCredentialRepository(db)

	mock.ExpectQuery(query).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(credentialColumns).AddRow("Bob", "bob@example.com", []byte{1}, []byte{2}))
	mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

	record, err := repo.GetByEmail(ctx, "Bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", record.Name)

	_, err = repo.GetByEmail(ctx, "carol@example.com")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestMySQLCredentialRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLCredentialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, email, password_hash, salt FROM credentials")).
		WillReturnRows(sqlmock.NewRows(credentialColumns).AddRow("Bob", "bob@example.com", []byte{1}, []byte{2}))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bob@example.com", records[0].Email)
}

func TestSQLCredentialRepository_Ping(t *testing.T) {
	db, _ := newMockDB(t)

	assert.NoError(t, NewPostgreSQLCredentialRepository(db).Ping(context.Background()))
	assert.NoError(t, NewMySQLCredentialRepository(db).Ping(context.Background()))
}
