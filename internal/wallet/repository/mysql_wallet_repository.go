package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const mysqlDuplicateEntry = 1062

// MySQLWalletRepository implements wallet persistence for MySQL. Key ids
// are stored as BINARY(16).
type MySQLWalletRepository struct {
	db *sql.DB
}

// NewMySQLWalletRepository creates a MySQLWalletRepository.
func NewMySQLWalletRepository(db *sql.DB) *MySQLWalletRepository {
	return &MySQLWalletRepository{db: db}
}

// Create inserts the wallet and its keys.
func (m *MySQLWalletRepository) Create(ctx context.Context, wallet *walletDomain.Wallet) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO wallets (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, wallet.ID, wallet.Name, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return walletDomain.ErrWalletAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create wallet")
	}

	return m.insertKeys(ctx, querier, wallet.ID, wallet.Keys, 0)
}

// Update replaces the wallet name and inserts keys not yet stored.
func (m *MySQLWalletRepository) Update(ctx context.Context, wallet *walletDomain.Wallet) error {
	querier := database.GetTx(ctx, m.db)

	exists, err := m.Exists(ctx, wallet.ID)
	if err != nil {
		return err
	}
	if !exists {
		return walletDomain.ErrWalletNotFound
	}

	// MySQL reports zero affected rows when the values are unchanged, so
	// existence is checked separately above.
	_, err = querier.ExecContext(
		ctx,
		`UPDATE wallets SET name = ?, updated_at = ? WHERE id = ?`,
		wallet.Name,
		wallet.UpdatedAt,
		wallet.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update wallet")
	}

	stored, err := m.getKeys(ctx, querier, wallet.ID)
	if err != nil {
		return err
	}

	return m.insertKeys(ctx, querier, wallet.ID, missingKeys(stored, wallet.Keys), len(stored))
}

// Delete removes the wallet, cascading to its keys and holdings.
func (m *MySQLWalletRepository) Delete(ctx context.Context, walletID string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, walletID)
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
func (m *MySQLWalletRepository) Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return m.get(ctx, `SELECT id, name, created_at, updated_at FROM wallets WHERE id = ?`, walletID)
}

// GetForUpdate is Get holding a row lock until the transaction ends.
func (m *MySQLWalletRepository) GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return m.get(ctx, `SELECT id, name, created_at, updated_at FROM wallets WHERE id = ? FOR UPDATE`, walletID)
}

func (m *MySQLWalletRepository) get(ctx context.Context, query, walletID string) (*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, m.db)

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

	keys, err := m.getKeys(ctx, querier, wallet.ID)
	if err != nil {
		return nil, err
	}
	wallet.Keys = keys
	return &wallet, nil
}

// List returns wallets ordered by creation time.
func (m *MySQLWalletRepository) List(
	ctx context.Context,
	q walletDomain.WalletQuery,
) ([]*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, created_at, updated_at FROM wallets
			  WHERE (? = '' OR LOWER(name) LIKE CONCAT('%', LOWER(?), '%'))
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, q.Name, q.Name, limitOrAll(q.Limit), q.Offset)
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
		if wallet.Keys, err = m.getKeys(ctx, querier, wallet.ID); err != nil {
			return nil, err
		}
	}
	return wallets, nil
}

// Count returns the number of wallets matching the query filters.
func (m *MySQLWalletRepository) Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM wallets WHERE (? = '' OR LOWER(name) LIKE CONCAT('%', LOWER(?), '%'))`,
		q.Name,
		q.Name,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count wallets")
	}
	return count, nil
}

// Exists reports whether the wallet exists.
func (m *MySQLWalletRepository) Exists(ctx context.Context, walletID string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	var exists bool
	err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = ?)`, walletID).
		Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check wallet existence")
	}
	return exists, nil
}

// AddHolding records that the wallet holds the credential.
func (m *MySQLWalletRepository) AddHolding(
	ctx context.Context,
	walletID, credentialID string,
	createdAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO wallet_credentials (wallet_id, credential_id, created_at) VALUES (?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, walletID, credentialID, createdAt); err != nil {
		if isMySQLDuplicateEntry(err) {
			return walletDomain.ErrCredentialAlreadyStored
		}
		return apperrors.Wrap(err, "failed to add holding")
	}
	return nil
}

// RemoveHolding deletes the holding and reports whether it existed.
func (m *MySQLWalletRepository) RemoveHolding(ctx context.Context, walletID, credentialID string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM wallet_credentials WHERE wallet_id = ? AND credential_id = ?`,
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
func (m *MySQLWalletRepository) HasHolding(ctx context.Context, walletID, credentialID string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM wallet_credentials WHERE wallet_id = ? AND credential_id = ?)`,
		walletID,
		credentialID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check holding")
	}
	return exists, nil
}

func (m *MySQLWalletRepository) getKeys(
	ctx context.Context,
	querier database.Querier,
	walletID string,
) ([]walletDomain.StoredKey, error) {
	query := `SELECT key_id, did_fragment, created_at, encrypted_public_key, encrypted_private_key
			  FROM wallet_keys WHERE wallet_id = ? ORDER BY position ASC`

	rows, err := querier.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get wallet keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := []walletDomain.StoredKey{}
	for rows.Next() {
		var (
			key   walletDomain.StoredKey
			keyID []byte
		)
		if err := rows.Scan(
			&keyID,
			&key.DidFragment,
			&key.CreatedAt,
			&key.EncryptedPublicKey,
			&key.EncryptedPrivateKey,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan wallet key")
		}
		if err := key.KeyID.UnmarshalBinary(keyID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal key id")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate wallet keys")
	}
	return keys, nil
}

func (m *MySQLWalletRepository) insertKeys(
	ctx context.Context,
	querier database.Querier,
	walletID string,
	keys []walletDomain.StoredKey,
	firstPosition int,
) error {
	query := `INSERT INTO wallet_keys
			  (key_id, wallet_id, did_fragment, position, created_at, encrypted_public_key, encrypted_private_key)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	for i, key := range keys {
		keyID, err := marshalUUID(key.KeyID)
		if err != nil {
			return err
		}
		_, err = querier.ExecContext(
			ctx,
			query,
			keyID,
			walletID,
			key.DidFragment,
			firstPosition+i,
			key.CreatedAt,
			key.EncryptedPublicKey,
			key.EncryptedPrivateKey,
		)
		if err != nil {
			if isMySQLDuplicateEntry(err) {
				return walletDomain.ErrDuplicateDidFragment
			}
			return apperrors.Wrap(err, "failed to create wallet key")
		}
	}
	return nil
}

func marshalUUID(id uuid.UUID) ([]byte, error) {
	data, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal key id")
	}
	return data, nil
}

func isMySQLDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
