package service

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFactory_Generate(t *testing.T) {
	factory := NewKeyFactory()

	t.Run("uses the given fragment", func(t *testing.T) {
		before := time.Now().UTC()

		key, err := factory.Generate("key-1")
		require.NoError(t, err)

		assert.Equal(t, "key-1", key.DidFragment)
		assert.Len(t, key.PublicKey, ed25519.PublicKeySize)
		assert.Len(t, key.PrivateKey, ed25519.PrivateKeySize)
		assert.False(t, key.CreatedAt.Before(before))
		assert.Equal(t, key.PublicKey, key.PrivateKey.Public())
	})

	t.Run("defaults to a random fragment and fresh ids", func(t *testing.T) {
		a, err := factory.Generate("")
		require.NoError(t, err)
		b, err := factory.Generate("")
		require.NoError(t, err)

		assert.NotEmpty(t, a.DidFragment)
		assert.NotEqual(t, a.DidFragment, b.DidFragment)
		assert.NotEqual(t, a.KeyID, b.KeyID)
	})
}
