package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

var (
	walletColumns    = []string{"id", "name", "created_at", "updated_at"}
	walletKeyColumns = []string{
		"key_id", "did_fragment", "created_at", "encrypted_public_key", "encrypted_private_key",
	}
)

type sqlWalletRepository interface {
	Create(ctx context.Context, wallet *walletDomain.Wallet) error
	Update(ctx context.Context, wallet *walletDomain.Wallet) error
	Delete(ctx context.Context, walletID string) error
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	AddHolding(ctx context.Context, walletID, credentialID string, createdAt time.Time) error
	RemoveHolding(ctx context.Context, walletID, credentialID string) (bool, error)
}

type walletDialect struct {
	name         string
	newRepo      func(mockDB sqlmockDB) sqlWalletRepository
	uniqueErr    error
	keyIDValue   func(id uuid.UUID) any
	forUpdateSQL string
}

func walletDialects() []walletDialect {
	return []walletDialect{
		{
			name: "postgresql",
			newRepo: func(mockDB sqlmockDB) sqlWalletRepository {
				return NewPostgreSQLWalletRepository(mockDB.db)
			},
			uniqueErr:    &pq.Error{Code: postgresUniqueViolation},
			keyIDValue:   func(id uuid.UUID) any { return id.String() },
			forUpdateSQL: "WHERE id = $1 FOR UPDATE",
		},
		{
			name: "mysql",
			newRepo: func(mockDB sqlmockDB) sqlWalletRepository {
				return NewMySQLWalletRepository(mockDB.db)
			},
			uniqueErr: &mysql.MySQLError{Number: mysqlDuplicateEntry},
			keyIDValue: func(id uuid.UUID) any {
				data, _ := id.MarshalBinary()
				return data
			},
			forUpdateSQL: "WHERE id = ? FOR UPDATE",
		},
	}
}

func newStoredKey(fragment string, createdAt time.Time) walletDomain.StoredKey {
	return walletDomain.StoredKey{
		KeyID:               uuid.Must(uuid.NewV7()),
		DidFragment:         fragment,
		CreatedAt:           createdAt,
		EncryptedPublicKey:  []byte("sealed-public"),
		EncryptedPrivateKey: []byte("sealed-private"),
	}
}

func TestSQLWalletRepositories(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, dialect := range walletDialects() {
		t.Run(dialect.name+" create with keys", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)
			wallet := &walletDomain.Wallet{
				ID:        "BPNL000000000001",
				Name:      "Acme",
				CreatedAt: now,
				UpdatedAt: now,
				Keys:      []walletDomain.StoredKey{newStoredKey("key-1", now)},
			}

			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets")).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_keys")).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.Create(ctx, wallet))
			assert.NoError(t, mockDB.mock.ExpectationsWereMet())
		})

		t.Run(dialect.name+" create duplicate", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets")).
				WillReturnError(dialect.uniqueErr)

			err := repo.Create(ctx, &walletDomain.Wallet{ID: "BPNL000000000001", Name: "Acme"})
			assert.ErrorIs(t, err, walletDomain.ErrWalletAlreadyExists)
		})

		t.Run(dialect.name+" create duplicate fragment", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets")).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_keys")).
				WillReturnError(dialect.uniqueErr)

			err := repo.Create(ctx, &walletDomain.Wallet{
				ID:   "BPNL000000000001",
				Name: "Acme",
				Keys: []walletDomain.StoredKey{newStoredKey("key-1", now)},
			})
			assert.ErrorIs(t, err, walletDomain.ErrDuplicateDidFragment)
		})

		t.Run(dialect.name+" get loads keys in order", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)
			first := newStoredKey("key-1", now)
			second := newStoredKey("key-2", now.Add(time.Hour))

			mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE id =")).
				WithArgs("BPNL000000000001").
				WillReturnRows(sqlmock.NewRows(walletColumns).AddRow("BPNL000000000001", "Acme", now, now))
			mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_keys WHERE wallet_id =")).
				WithArgs("BPNL000000000001").
				WillReturnRows(sqlmock.NewRows(walletKeyColumns).
					AddRow(dialect.keyIDValue(first.KeyID), first.DidFragment, first.CreatedAt,
						first.EncryptedPublicKey, first.EncryptedPrivateKey).
					AddRow(dialect.keyIDValue(second.KeyID), second.DidFragment, second.CreatedAt,
						second.EncryptedPublicKey, second.EncryptedPrivateKey))

			wallet, err := repo.Get(ctx, "BPNL000000000001")
			require.NoError(t, err)
			assert.Equal(t, "Acme", wallet.Name)
			require.Len(t, wallet.Keys, 2)
			assert.Equal(t, first.KeyID, wallet.Keys[0].KeyID)
			assert.Equal(t, second.KeyID, wallet.Keys[1].KeyID)
			assert.Equal(t, "key-2", wallet.Keys[1].DidFragment)
			assert.NoError(t, mockDB.mock.ExpectationsWereMet())
		})

		t.Run(dialect.name+" get missing", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE id =")).
				WithArgs("BPNL000000000404").
				WillReturnRows(sqlmock.NewRows(walletColumns))

			_, err := repo.Get(ctx, "BPNL000000000404")
			assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
		})

		t.Run(dialect.name+" get for update locks the row", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectQuery(regexp.QuoteMeta(dialect.forUpdateSQL)).
				WithArgs("BPNL000000000001").
				WillReturnRows(sqlmock.NewRows(walletColumns).AddRow("BPNL000000000001", "Acme", now, now))
			mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_keys")).
				WillReturnRows(sqlmock.NewRows(walletKeyColumns))

			wallet, err := repo.GetForUpdate(ctx, "BPNL000000000001")
			require.NoError(t, err)
			assert.Empty(t, wallet.Keys)
			assert.NoError(t, mockDB.mock.ExpectationsWereMet())
		})

		t.Run(dialect.name+" delete missing", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wallets")).
				WillReturnResult(sqlmock.NewResult(0, 0))

			assert.ErrorIs(t, repo.Delete(ctx, "BPNL000000000404"), walletDomain.ErrWalletNotFound)
		})

		t.Run(dialect.name+" add holding twice", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_credentials")).
				WillReturnError(dialect.uniqueErr)

			err := repo.AddHolding(ctx, "BPNL000000000001", "urn:uuid:1", now)
			assert.ErrorIs(t, err, walletDomain.ErrCredentialAlreadyStored)
		})

		t.Run(dialect.name+" remove holding reports absence", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)

			mockDB.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wallet_credentials")).
				WillReturnResult(sqlmock.NewResult(0, 0))

			removed, err := repo.RemoveHolding(ctx, "BPNL000000000001", "urn:uuid:1")
			require.NoError(t, err)
			assert.False(t, removed)
		})

		t.Run(dialect.name+" database error is wrapped", func(t *testing.T) {
			mockDB := newSQLMock(t)
			repo := dialect.newRepo(mockDB)
			dbErr := errors.New("connection reset")

			mockDB.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wallets")).WillReturnError(dbErr)

			err := repo.Delete(ctx, "BPNL000000000001")
			assert.ErrorIs(t, err, dbErr)
			assert.Contains(t, err.Error(), "failed to delete wallet")
		})
	}
}

func TestPostgreSQLWalletRepository_UpdateAppendsMissingKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockDB := newSQLMock(t)
	repo := NewPostgreSQLWalletRepository(mockDB.db)

	existing := newStoredKey("key-1", now)
	added := newStoredKey("key-2", now.Add(time.Minute))

	mockDB.mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET name")).
		WithArgs("Acme GmbH", now, "BPNL000000000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_keys")).
		WillReturnRows(sqlmock.NewRows(walletKeyColumns).
			AddRow(existing.KeyID.String(), existing.DidFragment, existing.CreatedAt,
				existing.EncryptedPublicKey, existing.EncryptedPrivateKey))
	mockDB.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_keys")).
		WithArgs(added.KeyID, "BPNL000000000001", "key-2", 1, added.CreatedAt,
			added.EncryptedPublicKey, added.EncryptedPrivateKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(ctx, &walletDomain.Wallet{
		ID:        "BPNL000000000001",
		Name:      "Acme GmbH",
		UpdatedAt: now,
		Keys:      []walletDomain.StoredKey{existing, added},
	})
	require.NoError(t, err)
	assert.NoError(t, mockDB.mock.ExpectationsWereMet())
}

func TestPostgreSQLWalletRepository_UpdateMissing(t *testing.T) {
	mockDB := newSQLMock(t)
	repo := NewPostgreSQLWalletRepository(mockDB.db)

	mockDB.mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET name")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &walletDomain.Wallet{ID: "BPNL000000000404"})
	assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
}

func TestMySQLWalletRepository_UpdateMissing(t *testing.T) {
	mockDB := newSQLMock(t)
	repo := NewMySQLWalletRepository(mockDB.db)

	mockDB.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM wallets")).
		WithArgs("BPNL000000000404").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Update(context.Background(), &walletDomain.Wallet{ID: "BPNL000000000404"})
	assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
	assert.NoError(t, mockDB.mock.ExpectationsWereMet())
}

func TestPostgreSQLWalletRepository_ListAppliesFilters(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockDB := newSQLMock(t)
	repo := NewPostgreSQLWalletRepository(mockDB.db)

	mockDB.mock.ExpectQuery(regexp.QuoteMeta("ILIKE")).
		WithArgs("acme", 10, 20).
		WillReturnRows(sqlmock.NewRows(walletColumns).AddRow("BPNL000000000001", "Acme", now, now))
	mockDB.mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_keys")).
		WithArgs("BPNL000000000001").
		WillReturnRows(sqlmock.NewRows(walletKeyColumns))

	wallets, err := repo.List(context.Background(), walletDomain.WalletQuery{Name: "acme", Offset: 20, Limit: 10})
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "BPNL000000000001", wallets[0].ID)
	assert.NoError(t, mockDB.mock.ExpectationsWereMet())
}
