// Package repository implements wallet persistence for PostgreSQL, MySQL and
// process memory.
//
// A wallet spans three tables: wallets, wallet_keys (insertion ordered by
// position, unique per (wallet_id, did_fragment)) and wallet_credentials,
// the holdings relation. Deleting a wallet cascades to its keys and
// holdings; credential documents are left untouched.
//
// All methods are transaction-aware via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const postgresUniqueViolation = "23505"

// PostgreSQLWalletRepository implements wallet persistence for PostgreSQL.
type PostgreSQLWalletRepository struct {
	db *sql.DB
}

// NewPostgreSQLWalletRepository creates a PostgreSQLWalletRepository.
func NewPostgreSQLWalletRepository(db *sql.DB) *PostgreSQLWalletRepository {
	return &PostgreSQLWalletRepository{db: db}
}

// Create inserts the wallet and its keys.
func (p *PostgreSQLWalletRepository) Create(ctx context.Context, wallet *walletDomain.Wallet) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO wallets (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, wallet.ID, wallet.Name, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return walletDomain.ErrWalletAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create wallet")
	}

	return p.insertKeys(ctx, querier, wallet.ID, wallet.Keys, 0)
}

// Update replaces the wallet name and inserts keys not yet stored. Stored
// keys are never modified or removed.
func (p *PostgreSQLWalletRepository) Update(ctx context.Context, wallet *walletDomain.Wallet) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE wallets SET name = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, wallet.Name, wallet.UpdatedAt, wallet.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update wallet")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return walletDomain.ErrWalletNotFound
	}

	stored, err := p.getKeys(ctx, querier, wallet.ID)
	if err != nil {
		return err
	}

	return p.insertKeys(ctx, querier, wallet.ID, missingKeys(stored, wallet.Keys), len(stored))
}

// Delete removes the wallet, cascading to its keys and holdings.
func (p *PostgreSQLWalletRepository) Delete(ctx context.Context, walletID string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM wallets WHERE id = $1`, walletID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete wallet")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return walletDomain.ErrWalletNotFound
	}
	return nil
}

// Get returns the wallet with its keys.
func (p *PostgreSQLWalletRepository) Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return p.get(ctx, `SELECT id, name, created_at, updated_at FROM wallets WHERE id = $1`, walletID)
}

// GetForUpdate is Get holding a row lock until the transaction ends. It
// serializes key provisioning and summary recomputation per wallet.
func (p *PostgreSQLWalletRepository) GetForUpdate(
	ctx context.Context,
	walletID string,
) (*walletDomain.Wallet, error) {
	return p.get(ctx, `SELECT id, name, created_at, updated_at FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
}

func (p *PostgreSQLWalletRepository) get(
	ctx context.Context,
	query string,
	walletID string,
) (*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, p.db)

	var wallet walletDomain.Wallet
	err := querier.QueryRowContext(ctx, query, walletID).Scan(
		&wallet.ID,
		&wallet.Name,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, walletDomain.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get wallet")
	}

	keys, err := p.getKeys(ctx, querier, wallet.ID)
	if err != nil {
		return nil, err
	}
	wallet.Keys = keys
	return &wallet, nil
}

// List returns wallets ordered by creation time.
func (p *PostgreSQLWalletRepository) List(
	ctx context.Context,
	q walletDomain.WalletQuery,
) ([]*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, created_at, updated_at FROM wallets
			  WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
			  ORDER BY created_at ASC, id ASC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, q.Name, limitOrAll(q.Limit), q.Offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list wallets")
	}
	defer func() {
		_ = rows.Close()
	}()

	var wallets []*walletDomain.Wallet
	for rows.Next() {
		var wallet walletDomain.Wallet
		if err := rows.Scan(&wallet.ID, &wallet.Name, &wallet.CreatedAt, &wallet.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan wallet")
		}
		wallets = append(wallets, &wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate wallets")
	}

	for _, wallet := range wallets {
		if wallet.Keys, err = p.getKeys(ctx, querier, wallet.ID); err != nil {
			return nil, err
		}
	}
	return wallets, nil
}

// Count returns the number of wallets matching the query filters.
func (p *PostgreSQLWalletRepository) Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM wallets WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`,
		q.Name,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count wallets")
	}
	return count, nil
}

// Exists reports whether the wallet exists.
func (p *PostgreSQLWalletRepository) Exists(ctx context.Context, walletID string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = $1)`, walletID).
		Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check wallet existence")
	}
	return exists, nil
}

// AddHolding records that the wallet holds the credential.
func (p *PostgreSQLWalletRepository) AddHolding(
	ctx context.Context,
	walletID, credentialID string,
	createdAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO wallet_credentials (wallet_id, credential_id, created_at) VALUES ($1, $2, $3)`

	if _, err := querier.ExecContext(ctx, query, walletID, credentialID, createdAt); err != nil {
		if isPostgresUniqueViolation(err) {
			return walletDomain.ErrCredentialAlreadyStored
		}
		return apperrors.Wrap(err, "failed to add holding")
	}
	return nil
}

// RemoveHolding deletes the holding and reports whether it existed.
func (p *PostgreSQLWalletRepository) RemoveHolding(
	ctx context.Context,
	walletID, credentialID string,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM wallet_credentials WHERE wallet_id = $1 AND credential_id = $2`,
		walletID,
		credentialID,
	)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to remove holding")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get affected rows")
	}
	return rows > 0, nil
}

// HasHolding reports whether the wallet holds the credential.
func (p *PostgreSQLWalletRepository) HasHolding(ctx context.Context, walletID, credentialID string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM wallet_credentials WHERE wallet_id = $1 AND credential_id = $2)`,
		walletID,
		credentialID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check holding")
	}
	return exists, nil
}

func (p *PostgreSQLWalletRepository) getKeys(
	ctx context.Context,
	querier database.Querier,
	walletID string,
) ([]walletDomain.StoredKey, error) {
	query := `SELECT key_id, did_fragment, created_at, encrypted_public_key, encrypted_private_key
			  FROM wallet_keys WHERE wallet_id = $1 ORDER BY position ASC`

	rows, err := querier.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get wallet keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := []walletDomain.StoredKey{}
	for rows.Next() {
		var key walletDomain.StoredKey
		if err := rows.Scan(
			&key.KeyID,
			&key.DidFragment,
			&key.CreatedAt,
			&key.EncryptedPublicKey,
			&key.EncryptedPrivateKey,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan wallet key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate wallet keys")
	}
	return keys, nil
}

func (p *PostgreSQLWalletRepository) insertKeys(
	ctx context.Context,
	querier database.Querier,
	walletID string,
	keys []walletDomain.StoredKey,
	firstPosition int,
) error {
	query := `INSERT INTO wallet_keys
			  (key_id, wallet_id, did_fragment, position, created_at, encrypted_public_key, encrypted_private_key)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, key := range keys {
		_, err := querier.ExecContext(
			ctx,
			query,
			key.KeyID,
			walletID,
			key.DidFragment,
			firstPosition+i,
			key.CreatedAt,
			key.EncryptedPublicKey,
			key.EncryptedPrivateKey,
		)
		if err != nil {
			if isPostgresUniqueViolation(err) {
				return walletDomain.ErrDuplicateDidFragment
			}
			return apperrors.Wrap(err, "failed to create wallet key")
		}
	}
	return nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == postgresUniqueViolation
}
