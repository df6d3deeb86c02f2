// Package domain holds the cryptographic primitives shared by key custody.
package domain

import (
	"context"
	"io"
)

// Algorithm is the AEAD used to encrypt key material under a custody key.
type Algorithm string

const (
	// AESGCM is AES-256-GCM (12-byte nonce, 16-byte tag).
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305 (12-byte nonce, 16-byte tag).
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the size in bytes of every custody key.
const KeySize = 32

// Valid reports whether the algorithm is supported.
func (a Algorithm) Valid() bool {
	return a == AESGCM || a == ChaCha20
}

// KMSKeeper wraps and unwraps custody keys inside an external KMS.
// *secrets.Keeper from gocloud.dev satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	io.Closer
}
