package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// KeyFactory generates Ed25519 wallet keys.
type KeyFactory struct{}

// NewKeyFactory creates a KeyFactory.
func NewKeyFactory() *KeyFactory {
	return &KeyFactory{}
}

// Generate creates a key pair with a fresh KeyID stamped with the current
// time. An empty didFragment is replaced by a random one.
func (f *KeyFactory) Generate(didFragment string) (*walletDomain.ResolvedKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	keyID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}

	if didFragment == "" {
		didFragment = uuid.NewString()
	}

	return &walletDomain.ResolvedKey{
		KeyID:       keyID,
		DidFragment: didFragment,
		CreatedAt:   time.Now().UTC(),
		PublicKey:   publicKey,
		PrivateKey:  privateKey,
	}, nil
}
