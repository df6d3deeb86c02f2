// Package domain defines the custody keys protecting wallet key material.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
)

// VaultIdentifier names the custody key of one (wallet, key) pair.
// Custody keys are never shared between wallets or between keys.
type VaultIdentifier string

// NewVaultIdentifier derives the identifier for a wallet key.
func NewVaultIdentifier(walletID string, keyID uuid.UUID) VaultIdentifier {
	return VaultIdentifier(strings.ToLower(walletID) + "-" + keyID.String())
}

// String implements fmt.Stringer.
func (id VaultIdentifier) String() string {
	return string(id)
}

// CustodyKey is the symmetric key encrypting one wallet key's material.
// Key holds the plaintext and is only populated in memory; EncryptedKey is
// the form persisted by KMS-backed custody.
type CustodyKey struct {
	ID           VaultIdentifier
	Algorithm    cryptoDomain.Algorithm
	Key          []byte
	EncryptedKey []byte
	CanEncrypt   bool
	CanDecrypt   bool
	CreatedAt    time.Time
}

// Validate rejects custody keys that cannot both encrypt and decrypt.
func (k *CustodyKey) Validate() error {
	if !k.CanEncrypt || !k.CanDecrypt {
		return ErrCustodyKeyUnusable
	}
	return nil
}
