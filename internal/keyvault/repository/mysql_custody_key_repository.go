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

// MySQLCustodyKeyRepository implements custody key persistence for MySQL.
type MySQLCustodyKeyRepository struct {
	db *sql.DB
}

// NewMySQLCustodyKeyRepository creates a MySQLCustodyKeyRepository.
func NewMySQLCustodyKeyRepository(db *sql.DB) *MySQLCustodyKeyRepository {
	return &MySQLCustodyKeyRepository{db: db}
}

// Get returns the wrapped custody key for id.
func (m *MySQLCustodyKeyRepository) Get(
	ctx context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, algorithm, encrypted_key, can_encrypt, can_decrypt, created_at
			  FROM custody_keys WHERE id = ?`

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
func (m *MySQLCustodyKeyRepository) CreateIfAbsent(
	ctx context.Context,
	key *keyvaultDomain.CustodyKey,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO custody_keys (id, algorithm, encrypted_key, can_encrypt, can_decrypt, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE id = id`

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
