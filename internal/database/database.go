// Package database opens the SQL pool behind the wallet, credential, custody
// and outbox stores and carries transactions through context.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	apperrors "github.com/allisson/wallets/internal/errors"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const pingTimeout = 5 * time.Second

// Config describes the connection pool.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens the pool and verifies it with a ping. Drivers other than
// postgres and mysql are rejected as a configuration failure.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, apperrors.Wrap(apperrors.ErrConfigurationFailure, "unsupported database driver "+cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
