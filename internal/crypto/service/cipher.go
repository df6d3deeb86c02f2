// Package service provides the AEAD ciphers and KMS access used by key custody.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
)

// Cipher seals and opens data with a random nonce prepended to the ciphertext.
// Instances are stateless and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher for the algorithm. The key must be
// cryptoDomain.KeySize bytes.
func NewCipher(key []byte, alg cryptoDomain.Algorithm) (*Cipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case cryptoDomain.AESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		aead, err = cipher.NewGCM(block)
	case cryptoDomain.ChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext bound to aad and returns nonce || ciphertext.
func (c *Cipher) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. Any authentication failure is reported as
// cryptoDomain.ErrDecryptionFailed.
func (c *Cipher) Open(sealed, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// NewKey returns a random custody key.
func NewKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
