package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/database"
	apperrors "github.com/allisson/credentials/internal/errors"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MySQLCredentialRepository handles credential persistence for MySQL.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQLCredentialRepository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}

// Create inserts a new credential record.
func (r *MySQLCredentialRepository) Create(ctx context.Context, record *domain.CredentialRecord) error {
	querier := database.GetTx(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return apperrors.Wrap(err, "failed to generate credential id")
	}
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	query := `INSERT INTO credentials (id, name, email, email_lower, password_hash, salt, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(6))`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		record.Name,
		record.Email,
		strings.ToLower(record.Email),
		record.PasswordHash,
		record.Salt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByEmail retrieves a credential record by case-insensitive email.
func (r *MySQLCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.CredentialRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT name, email, password_hash, salt FROM credentials WHERE email_lower = ?`

	var record domain.CredentialRecord
	err := querier.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(
		&record.Name, &record.Email, &record.PasswordHash, &record.Salt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential by email")
	}
	return &record, nil
}

// List returns every credential record in insertion order.
func (r *MySQLCredentialRepository) List(ctx context.Context) ([]*domain.CredentialRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT name, email, password_hash, salt FROM credentials ORDER BY created_at, id`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer func() { _ = rows.Close() }()

	return scanCredentials(rows)
}

// Ping verifies the database connection.
func (r *MySQLCredentialRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
