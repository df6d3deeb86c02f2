package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
)

type fakeCustodyKeyRepository struct {
	mu   sync.Mutex
	keys map[keyvaultDomain.VaultIdentifier]keyvaultDomain.CustodyKey
}

func newFakeCustodyKeyRepository() *fakeCustodyKeyRepository {
	return &fakeCustodyKeyRepository{keys: map[keyvaultDomain.VaultIdentifier]keyvaultDomain.CustodyKey{}}
}

func (r *fakeCustodyKeyRepository) Get(
	_ context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok {
		return nil, keyvaultDomain.ErrCustodyKeyNotFound
	}
	return &key, nil
}

func (r *fakeCustodyKeyRepository) CreateIfAbsent(_ context.Context, key *keyvaultDomain.CustodyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key.ID]; !ok {
		r.keys[key.ID] = *key
	}
	return nil
}

func newLocalKeeper(t *testing.T) cryptoDomain.KMSKeeper {
	t.Helper()
	secret, err := localsecrets.NewRandomKey()
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(secret)
	t.Cleanup(func() { _ = keeper.Close() })
	return keeper
}

func TestKMSBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("persists only the wrapped key", func(t *testing.T) {
		repo := newFakeCustodyKeyRepository()
		backend := NewKMSBackend(newLocalKeeper(t), repo, cryptoDomain.AESGCM)
		id := keyvaultDomain.NewVaultIdentifier(testWalletID, uuid.New())

		key, err := backend.GetOrCreate(ctx, id)
		require.NoError(t, err)
		assert.Len(t, key.Key, cryptoDomain.KeySize)

		persisted, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, persisted.Key)
		assert.NotEmpty(t, persisted.EncryptedKey)
		assert.NotEqual(t, key.Key, persisted.EncryptedKey)

		again, err := backend.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, key.Key, again.Key)
	})

	t.Run("missing key is reported as not found", func(t *testing.T) {
		backend := NewKMSBackend(newLocalKeeper(t), newFakeCustodyKeyRepository(), cryptoDomain.AESGCM)

		_, err := backend.Get(ctx, keyvaultDomain.NewVaultIdentifier(testWalletID, uuid.New()))

		assert.ErrorIs(t, err, keyvaultDomain.ErrCustodyKeyNotFound)
	})

	t.Run("key wrapped by another KMS key is unusable", func(t *testing.T) {
		repo := newFakeCustodyKeyRepository()
		id := keyvaultDomain.NewVaultIdentifier(testWalletID, uuid.New())
		_, err := NewKMSBackend(newLocalKeeper(t), repo, cryptoDomain.AESGCM).GetOrCreate(ctx, id)
		require.NoError(t, err)

		_, err = NewKMSBackend(newLocalKeeper(t), repo, cryptoDomain.AESGCM).Get(ctx, id)

		assert.ErrorIs(t, err, keyvaultDomain.ErrCustodyKeyUnusable)
	})

	t.Run("vault round trip", func(t *testing.T) {
		vault := NewVault(NewKMSBackend(newLocalKeeper(t), newFakeCustodyKeyRepository(), cryptoDomain.ChaCha20))
		key, err := NewKeyFactory().Generate("key-1")
		require.NoError(t, err)

		stored, err := vault.Store(ctx, testWalletID, key)
		require.NoError(t, err)
		resolved, found, err := vault.Resolve(ctx, testWalletID, stored)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, key.PrivateKey, resolved.PrivateKey)
	})
}
