package domain

import (
	"github.com/allisson/wallets/internal/errors"
)

// Key custody errors.
var (
	// ErrCustodyKeyNotFound indicates no custody key exists for an identifier.
	ErrCustodyKeyNotFound = errors.Wrap(errors.ErrNotFound, "custody key not found")

	// ErrCustodyKeyUnusable indicates a custody key that is encrypt-only or decrypt-only.
	ErrCustodyKeyUnusable = errors.Wrap(errors.ErrCustodyFailure, "custody key cannot both encrypt and decrypt")

	// ErrKeyMaterialCorrupt indicates stored key material failed to decrypt.
	ErrKeyMaterialCorrupt = errors.Wrap(errors.ErrCustodyFailure, "stored key material cannot be decrypted")

	// ErrSigningKeyNotInVault indicates a wallet's signing key has no custody key.
	ErrSigningKeyNotInVault = errors.Wrap(errors.ErrCustodyFailure, "signing key missing in vault")
)
