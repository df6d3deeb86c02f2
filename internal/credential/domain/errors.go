package domain

import (
	"github.com/allisson/wallets/internal/errors"
)

// Credential errors.
var (
	// ErrCredentialNotFound indicates the credential does not exist.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "verifiable credential not found")

	// ErrCredentialAlreadyExists indicates a credential id is taken.
	ErrCredentialAlreadyExists = errors.Wrap(errors.ErrConflict, "verifiable credential already exists")

	// ErrCredentialAlreadyIssued indicates the holder already holds a credential of the requested type.
	ErrCredentialAlreadyIssued = errors.Wrap(errors.ErrConflict, "credential of this type already issued to holder")

	// ErrInvalidCredential indicates a malformed credential or a failed JSON-LD check.
	ErrInvalidCredential = errors.Wrap(errors.ErrInvalidInput, "invalid verifiable credential")

	// ErrInvalidProof indicates the proof does not verify.
	ErrInvalidProof = errors.Wrap(errors.ErrInvalidInput, "invalid credential proof")

	// ErrCredentialExpired indicates the credential's expiration date has passed.
	ErrCredentialExpired = errors.Wrap(errors.ErrInvalidInput, "verifiable credential expired")
)
