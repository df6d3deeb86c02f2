package service

import (
	"context"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	cryptoService "github.com/allisson/wallets/internal/crypto/service"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
)

// MemoryBackend keeps custody keys in process memory. Keys are lost on
// restart, so it is only meant for development and tests.
type MemoryBackend struct {
	mu        sync.RWMutex
	keys      map[keyvaultDomain.VaultIdentifier]*keyvaultDomain.CustodyKey
	algorithm cryptoDomain.Algorithm
}

// NewMemoryBackend creates an empty MemoryBackend issuing keys for alg.
func NewMemoryBackend(alg cryptoDomain.Algorithm) *MemoryBackend {
	return &MemoryBackend{
		keys:      make(map[keyvaultDomain.VaultIdentifier]*keyvaultDomain.CustodyKey),
		algorithm: alg,
	}
}

// Get implements CustodyBackend.
func (b *MemoryBackend) Get(
	_ context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key, ok := b.keys[id]
	if !ok {
		return nil, keyvaultDomain.ErrCustodyKeyNotFound
	}
	clone := *key
	return &clone, nil
}

// GetOrCreate implements CustodyBackend.
func (b *MemoryBackend) GetOrCreate(
	_ context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if key, ok := b.keys[id]; ok {
		clone := *key
		return &clone, nil
	}

	secret, err := cryptoService.NewKey()
	if err != nil {
		return nil, err
	}
	key := &keyvaultDomain.CustodyKey{
		ID:         id,
		Algorithm:  b.algorithm,
		Key:        secret,
		CanEncrypt: true,
		CanDecrypt: true,
		CreatedAt:  time.Now().UTC(),
	}
	b.keys[id] = key

	clone := *key
	return &clone, nil
}

// Put replaces a custody key. It exists for operational repair and tests.
func (b *MemoryBackend) Put(key *keyvaultDomain.CustodyKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clone := *key
	b.keys[key.ID] = &clone
}

// Len returns the number of custody keys.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.keys)
}

// Snapshot implements database.Snapshotter so custody keys created by a
// rolled back memory transaction disappear with it.
func (b *MemoryBackend) Snapshot() func() {
	b.mu.RLock()
	saved := make(map[keyvaultDomain.VaultIdentifier]*keyvaultDomain.CustodyKey, len(b.keys))
	for id, key := range b.keys {
		saved[id] = key
	}
	b.mu.RUnlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.keys = saved
	}
}
