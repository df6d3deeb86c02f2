// Package domain defines the wallet aggregate and its key references.
package domain

import (
	"bytes"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
)

// Wallet is an organisation's identity: a business partner number, a name
// and the signing keys registered in its DID document.
//
// Keys is insertion ordered. A wallet has no keys only between its creation
// and the end of the creation pipeline.
type Wallet struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Keys      []StoredKey
}

// StoredKey is a key pair at rest. Both halves are ciphertext produced by
// the key vault; the plaintext never leaves the vault's resolve call.
type StoredKey struct {
	KeyID               uuid.UUID
	DidFragment         string
	CreatedAt           time.Time
	EncryptedPublicKey  []byte
	EncryptedPrivateKey []byte
}

// ResolvedKey is a decrypted key pair. It lives in memory only and must
// never be logged or persisted.
type ResolvedKey struct {
	KeyID       uuid.UUID
	DidFragment string
	CreatedAt   time.Time
	PublicKey   ed25519.PublicKey
	PrivateKey  ed25519.PrivateKey
}

// Zero wipes the private key.
func (k *ResolvedKey) Zero() {
	cryptoDomain.Zero(k.PrivateKey)
}

// SigningKey returns the key with the latest CreatedAt. Equal timestamps are
// broken by the greater KeyID so the choice is deterministic.
func (w *Wallet) SigningKey() (StoredKey, bool) {
	if len(w.Keys) == 0 {
		return StoredKey{}, false
	}

	current := w.Keys[0]
	for _, key := range w.Keys[1:] {
		switch {
		case key.CreatedAt.After(current.CreatedAt):
			current = key
		case key.CreatedAt.Equal(current.CreatedAt) && bytes.Compare(key.KeyID[:], current.KeyID[:]) > 0:
			current = key
		}
	}
	return current, true
}

// HasKey reports whether the wallet holds a key with keyID.
func (w *Wallet) HasKey(keyID uuid.UUID) bool {
	_, ok := w.Key(keyID)
	return ok
}

// Key returns the key with keyID.
func (w *Wallet) Key(keyID uuid.UUID) (StoredKey, bool) {
	for _, key := range w.Keys {
		if key.KeyID == keyID {
			return key, true
		}
	}
	return StoredKey{}, false
}

// WalletQuery filters and pages wallet listings. Name matches as a
// case-insensitive substring when set.
type WalletQuery struct {
	Name   string
	Offset int
	Limit  int
}
