package domain

import (
	"github.com/allisson/wallets/internal/errors"
)

var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a custody key is not KeySize bytes long.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates the ciphertext could not be authenticated.
	// The cause (wrong key, tampered data, wrong associated data) is not disclosed.
	ErrDecryptionFailed = errors.New("decryption failed")
)
