package domain

import (
	"github.com/allisson/wallets/internal/errors"
)

// Wallet errors.
var (
	// ErrWalletNotFound indicates the wallet does not exist.
	ErrWalletNotFound = errors.Wrap(errors.ErrNotFound, "wallet not found")

	// ErrWalletAlreadyExists indicates the wallet id is taken.
	ErrWalletAlreadyExists = errors.Wrap(errors.ErrConflict, "wallet already exists")

	// ErrCredentialAlreadyStored indicates the wallet already holds the credential.
	ErrCredentialAlreadyStored = errors.Wrap(errors.ErrConflict, "verifiable credential already stored in wallet")

	// ErrDuplicateDidFragment indicates two keys of one wallet share a DID fragment.
	ErrDuplicateDidFragment = errors.Wrap(errors.ErrConflict, "did fragment already used by wallet")

	// ErrAuthorityWalletProtected indicates an attempt to delete the authority wallet.
	ErrAuthorityWalletProtected = errors.Wrap(errors.ErrConflict, "authority wallet cannot be deleted")

	// ErrNoKeyFound indicates a wallet that must sign has no keys.
	ErrNoKeyFound = errors.Wrap(errors.ErrConfigurationFailure, "no key found")
)
