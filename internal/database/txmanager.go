// Package database provides database connection management and the store lock.
package database

import (
	"context"
	"database/sql"
	"sync"
)

// txKey is a context key type for storing database transactions.
type txKey struct{}

// lockKey is a context key type marking that a serialTxManager lock is held.
type lockKey struct{}

// Querier represents a database query executor (either *sql.DB or *sql.Tx).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs a unit of work against the credential store atomically.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// sqlTxManager implements TxManager for SQL databases.
type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager for the given database.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithTx executes the function within a database transaction.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return tx.Commit()
}

// GetTx retrieves a transaction from context, or returns the DB connection.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// serialTxManager serializes every unit of work behind one process-wide mutex.
//
// The lock is re-entrant per context: a WithTx call made from inside fn sees
// the marker stored in ctx and runs directly, so repositories can guard their
// own methods and still be composed into a larger critical section.
type serialTxManager struct {
	mu    sync.Mutex
	inner TxManager
}

// NewSerialTxManager returns a TxManager guarded by a single mutex. When inner
// is not nil, fn additionally runs inside inner's transaction.
func NewSerialTxManager(inner TxManager) TxManager {
	return &serialTxManager{inner: inner}
}

// WithTx acquires the store lock (unless ctx already holds it) and runs fn.
func (m *serialTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if HoldsLock(ctx, m) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx = context.WithValue(ctx, lockKey{}, m)

	if m.inner != nil {
		return m.inner.WithTx(ctx, fn)
	}
	return fn(ctx)
}

// HoldsLock reports whether ctx was derived inside manager's critical section.
func HoldsLock(ctx context.Context, manager TxManager) bool {
	held, ok := ctx.Value(lockKey{}).(TxManager)
	return ok && held == manager
}
