package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/database"
	apperrors "github.com/allisson/credentials/internal/errors"
)

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// PostgreSQLCredentialRepository handles credential persistence for PostgreSQL.
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQLCredentialRepository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// Create inserts a new credential record. The unique index on email_lower
// rejects case variants of a registered email.
func (r *PostgreSQLCredentialRepository) Create(ctx context.Context, record *domain.CredentialRecord) error {
	querier := database.GetTx(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return apperrors.Wrap(err, "failed to generate credential id")
	}

	query := `INSERT INTO credentials (id, name, email, email_lower, password_hash, salt, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		record.Name,
		record.Email,
		strings.ToLower(record.Email),
		record.PasswordHash,
		record.Salt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByEmail retrieves a credential record by case-insensitive email.
func (r *PostgreSQLCredentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*domain.CredentialRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT name, email, password_hash, salt FROM credentials WHERE email_lower = $1`

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
func (r *PostgreSQLCredentialRepository) List(ctx context.Context) ([]*domain.CredentialRecord, error) {
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
func (r *PostgreSQLCredentialRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isPostgreSQLUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func scanCredentials(rows *sql.Rows) ([]*domain.CredentialRecord, error) {
	records := []*domain.CredentialRecord{}
	for rows.Next() {
		var record domain.CredentialRecord
		if err := rows.Scan(&record.Name, &record.Email, &record.PasswordHash, &record.Salt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate credentials")
	}
	return records, nil
}
