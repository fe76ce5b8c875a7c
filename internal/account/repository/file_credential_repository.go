// Package repository implements credential record persistence.
//
// The file repository keeps every record in one JSON array that is rewritten in
// full on each insert. PostgreSQL and MySQL repositories store one row per
// record behind a unique index on the lower-cased email.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/database"
	apperrors "github.com/allisson/credentials/internal/errors"
)

// UsersFileName is the name of the credential collection inside the data directory.
const UsersFileName = "users.json"

// FileCredentialRepository persists credential records as a single JSON array.
//
// Every method runs inside txManager, so reads never observe a half-written
// collection. Writes go to a temporary file that is renamed over the previous
// collection.
type FileCredentialRepository struct {
	path      string
	txManager database.TxManager
}

// NewFileCredentialRepository prepares dataDir and an empty collection ("[]")
// when none exists yet.
func NewFileCredentialRepository(
	dataDir string,
	txManager database.TxManager,
) (*FileCredentialRepository, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	r := &FileCredentialRepository{
		path:      filepath.Join(dataDir, UsersFileName),
		txManager: txManager,
	}

	err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
		if _, err := os.Stat(r.path); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return r.persist([]*domain.CredentialRecord{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	return r, nil
}

// Path returns the location of the JSON collection.
func (r *FileCredentialRepository) Path() string {
	return r.path
}

// List returns every stored record, or an empty slice when the store is empty.
func (r *FileCredentialRepository) List(ctx context.Context) ([]*domain.CredentialRecord, error) {
	var records []*domain.CredentialRecord
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		records, err = r.load()
		return err
	})
	return records, err
}

// GetByEmail returns the record whose email matches case-insensitively.
func (r *FileCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.CredentialRecord, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	record, ok := domain.FindByEmail(records, email)
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return record, nil
}

// Create appends record and rewrites the collection. The uniqueness check and
// the write happen in the same critical section.
func (r *FileCredentialRepository) Create(ctx context.Context, record *domain.CredentialRecord) error {
	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		records, err := r.load()
		if err != nil {
			return err
		}

		if _, exists := domain.FindByEmail(records, record.Email); exists {
			return domain.ErrUserAlreadyExists
		}

		return r.persist(append(records, record))
	})
}

// Ping reports whether the collection is readable.
func (r *FileCredentialRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.path)
	return err
}

func (r *FileCredentialRepository) load() ([]*domain.CredentialRecord, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*domain.CredentialRecord{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read credential store %s", r.path)
	}

	records := []*domain.CredentialRecord{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.Wrapf(err, "failed to decode credential store %s", r.path)
	}
	return records, nil
}

func (r *FileCredentialRepository) persist(records []*domain.CredentialRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode credential store")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), UsersFileName+".*.tmp")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temporary credential store")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to write credential store")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrap(err, "failed to sync credential store")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, "failed to close credential store")
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return apperrors.Wrapf(err, "failed to replace credential store %s", r.path)
	}
	return nil
}
