// Package repository persists wrapped custody keys for KMS-backed key custody.
//
// Custody keys are created lazily and concurrently by key provisioning, so
// inserts are idempotent per identifier: the first writer wins and later
// writers re-read the stored key.
package repository

import (
	"context"
	"database/sql"
	"errors"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
)

// PostgreSQLCustodyKeyRepository implements custody key persistence for PostgreSQL.
type PostgreSQLCustodyKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLCustodyKeyRepository creates a PostgreSQLCustodyKeyRepository.
func NewPostgreSQLCustodyKeyRepository(db *sql.DB) *PostgreSQLCustodyKeyRepository {
	return &PostgreSQLCustodyKeyRepository{db: db}
}

// Get returns the wrapped custody key for id.
func (p *PostgreSQLCustodyKeyRepository) Get(
	ctx context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, algorithm, encrypted_key, can_encrypt, can_decrypt, created_at
			  FROM custody_keys WHERE id = $1`

	var (
		key       keyvaultDomain.CustodyKey
		rawID     string
		algorithm string
	)
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID,
		&algorithm,
		&key.EncryptedKey,
		&key.CanEncrypt,
		&key.CanDecrypt,
		&key.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, keyvaultDomain.ErrCustodyKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get custody key")
	}

	key.ID = keyvaultDomain.VaultIdentifier(rawID)
	key.Algorithm = cryptoDomain.Algorithm(algorithm)
	return &key, nil
}

// CreateIfAbsent inserts the key unless its id already exists.
func (p *PostgreSQLCustodyKeyRepository) CreateIfAbsent(
	ctx context.Context,
	key *keyvaultDomain.CustodyKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO custody_keys (id, algorithm, encrypted_key, can_encrypt, can_decrypt, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (id) DO NOTHING`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID.String(),
		string(key.Algorithm),
		key.EncryptedKey,
		key.CanEncrypt,
		key.CanDecrypt,
		key.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create custody key")
	}
	return nil
}
