// Package database provides database connection management and utilities.
package database

import (
	"context"
	"database/sql"
	"time"
)

// txKey is a context key type for storing database transactions.
type txKey struct{}

// Querier represents a database query executor (either *sql.DB or *sql.Tx).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager manages database transactions.
//
// WithTx joins the transaction already carried by ctx, if any, so event
// listeners triggered inside a write share its commit or rollback.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// sqlTxManager implements TxManager for SQL databases.
type sqlTxManager struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxManager creates a new TxManager for the given database. A positive
// timeout bounds every outermost transaction.
func NewTxManager(db *sql.DB, timeout time.Duration) TxManager {
	return &sqlTxManager{db: db, timeout: timeout}
}

// WithTx executes the function within a database transaction.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
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

// InTx reports whether ctx carries a transaction from either manager.
func InTx(ctx context.Context) bool {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return true
	}
	_, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	return ok
}
