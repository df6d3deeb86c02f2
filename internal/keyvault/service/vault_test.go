package service

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	"github.com/allisson/wallets/internal/errors"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const testWalletID = "BPNL000000000001"

func TestVault_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			vault := NewVault(NewMemoryBackend(alg))
			key, err := NewKeyFactory().Generate("key-1")
			require.NoError(t, err)

			stored, err := vault.Store(ctx, testWalletID, key)
			require.NoError(t, err)

			assert.Equal(t, key.KeyID, stored.KeyID)
			assert.Equal(t, "key-1", stored.DidFragment)
			assert.NotEqual(t, []byte(key.PrivateKey), stored.EncryptedPrivateKey)
			assert.NotEqual(t, []byte(key.PublicKey), stored.EncryptedPublicKey)

			resolved, found, err := vault.Resolve(ctx, testWalletID, stored)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, key.PublicKey, resolved.PublicKey)
			assert.Equal(t, key.PrivateKey, resolved.PrivateKey)
			assert.Equal(t, key.CreatedAt, resolved.CreatedAt)

			publicKey, found, err := vault.ResolvePublic(ctx, testWalletID, stored)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, key.PublicKey, publicKey)
		})
	}
}

func TestVault_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("never stored key is absent", func(t *testing.T) {
		vault := NewVault(NewMemoryBackend(cryptoDomain.AESGCM))

		resolved, found, err := vault.Resolve(ctx, testWalletID, walletDomain.StoredKey{KeyID: uuid.New()})

		assert.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, resolved)
	})

	t.Run("material stored for another wallet does not resolve", func(t *testing.T) {
		backend := NewMemoryBackend(cryptoDomain.AESGCM)
		vault := NewVault(backend)
		key, err := NewKeyFactory().Generate("key-1")
		require.NoError(t, err)
		stored, err := vault.Store(ctx, testWalletID, key)
		require.NoError(t, err)

		_, found, err := vault.Resolve(ctx, "BPNL000000000002", stored)

		assert.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, 1, backend.Len())
	})

	t.Run("tampered ciphertext is a custody failure", func(t *testing.T) {
		vault := NewVault(NewMemoryBackend(cryptoDomain.AESGCM))
		key, err := NewKeyFactory().Generate("key-1")
		require.NoError(t, err)
		stored, err := vault.Store(ctx, testWalletID, key)
		require.NoError(t, err)

		stored.EncryptedPrivateKey[len(stored.EncryptedPrivateKey)-1] ^= 0xff
		_, _, err = vault.Resolve(ctx, testWalletID, stored)

		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyMaterialCorrupt)
		assert.ErrorIs(t, err, errors.ErrCustodyFailure)
	})

	t.Run("swapped halves do not decrypt", func(t *testing.T) {
		vault := NewVault(NewMemoryBackend(cryptoDomain.AESGCM))
		key, err := NewKeyFactory().Generate("key-1")
		require.NoError(t, err)
		stored, err := vault.Store(ctx, testWalletID, key)
		require.NoError(t, err)

		stored.EncryptedPublicKey, stored.EncryptedPrivateKey = stored.EncryptedPrivateKey, stored.EncryptedPublicKey
		_, _, err = vault.Resolve(ctx, testWalletID, stored)

		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyMaterialCorrupt)
	})
}

func TestVault_UnusableCustodyKey(t *testing.T) {
	ctx := context.Background()
	key, err := NewKeyFactory().Generate("key-1")
	require.NoError(t, err)
	id := keyvaultDomain.NewVaultIdentifier(testWalletID, key.KeyID)

	tests := []struct {
		name       string
		canEncrypt bool
		canDecrypt bool
	}{
		{name: "encrypt only", canEncrypt: true},
		{name: "decrypt only", canDecrypt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend(cryptoDomain.AESGCM)
			backend.Put(&keyvaultDomain.CustodyKey{
				ID:         id,
				Algorithm:  cryptoDomain.AESGCM,
				Key:        make([]byte, 32),
				CanEncrypt: tt.canEncrypt,
				CanDecrypt: tt.canDecrypt,
			})
			vault := NewVault(backend)

			_, err := vault.Store(ctx, testWalletID, key)
			assert.ErrorIs(t, err, keyvaultDomain.ErrCustodyKeyUnusable)
			assert.ErrorIs(t, err, errors.ErrCustodyFailure)

			_, found, err := vault.Resolve(ctx, testWalletID, walletDomain.StoredKey{KeyID: key.KeyID})
			assert.ErrorIs(t, err, keyvaultDomain.ErrCustodyKeyUnusable)
			assert.False(t, found)
		})
	}
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("one custody key per identifier", func(t *testing.T) {
		backend := NewMemoryBackend(cryptoDomain.AESGCM)
		id := keyvaultDomain.NewVaultIdentifier(testWalletID, uuid.New())

		first, err := backend.GetOrCreate(ctx, id)
		require.NoError(t, err)
		second, err := backend.GetOrCreate(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, first.Key, second.Key)
		assert.True(t, first.CanEncrypt && first.CanDecrypt)
		assert.Equal(t, 1, backend.Len())
	})

	t.Run("snapshot restores keys created afterwards", func(t *testing.T) {
		backend := NewMemoryBackend(cryptoDomain.AESGCM)
		restore := backend.Snapshot()

		_, err := backend.GetOrCreate(ctx, keyvaultDomain.NewVaultIdentifier(testWalletID, uuid.New()))
		require.NoError(t, err)
		require.Equal(t, 1, backend.Len())

		restore()
		assert.Equal(t, 0, backend.Len())
	})
}

func TestVault_StoreSignVerify(t *testing.T) {
	ctx := context.Background()
	vault := NewVault(NewMemoryBackend(cryptoDomain.AESGCM))
	key, err := NewKeyFactory().Generate("")
	require.NoError(t, err)
	stored, err := vault.Store(ctx, testWalletID, key)
	require.NoError(t, err)

	resolved, found, err := vault.Resolve(ctx, testWalletID, stored)
	require.NoError(t, err)
	require.True(t, found)

	signature := ed25519.Sign(resolved.PrivateKey, []byte("payload"))
	assert.True(t, ed25519.Verify(key.PublicKey, []byte("payload"), signature))
}
