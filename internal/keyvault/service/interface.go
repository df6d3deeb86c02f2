// Package service implements key custody: the key factory, the key vault
// and its custody backends.
package service

import (
	"context"
	"crypto/ed25519"

	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// KeyVault encrypts wallet key material at rest and resolves it on demand.
type KeyVault interface {
	// Store encrypts the key pair under the custody key of (walletID, key.KeyID),
	// creating that custody key if needed.
	Store(ctx context.Context, walletID string, key *walletDomain.ResolvedKey) (walletDomain.StoredKey, error)

	// Resolve decrypts a stored key pair. found is false when no custody key
	// exists for the pair; that is not an error.
	Resolve(
		ctx context.Context,
		walletID string,
		key walletDomain.StoredKey,
	) (resolved *walletDomain.ResolvedKey, found bool, err error)

	// ResolvePublic decrypts only the public half of a stored key pair.
	ResolvePublic(
		ctx context.Context,
		walletID string,
		key walletDomain.StoredKey,
	) (publicKey ed25519.PublicKey, found bool, err error)
}

// CustodyBackend owns the custody key namespace.
type CustodyBackend interface {
	// Get returns keyvaultDomain.ErrCustodyKeyNotFound when the key is absent.
	Get(ctx context.Context, id keyvaultDomain.VaultIdentifier) (*keyvaultDomain.CustodyKey, error)

	// GetOrCreate returns the custody key, creating it when absent. Concurrent
	// callers for the same identifier receive the same key.
	GetOrCreate(ctx context.Context, id keyvaultDomain.VaultIdentifier) (*keyvaultDomain.CustodyKey, error)
}

// CustodyKeyRepository persists wrapped custody keys.
type CustodyKeyRepository interface {
	// Get returns keyvaultDomain.ErrCustodyKeyNotFound when the key is absent.
	Get(ctx context.Context, id keyvaultDomain.VaultIdentifier) (*keyvaultDomain.CustodyKey, error)

	// CreateIfAbsent inserts the key unless one already exists for its id.
	CreateIfAbsent(ctx context.Context, key *keyvaultDomain.CustodyKey) error
}
