package did

import (
	"github.com/allisson/wallets/internal/errors"
)

// DID errors.
var (
	// ErrInvalidDID indicates a malformed did:web identifier or verification method.
	ErrInvalidDID = errors.Wrap(errors.ErrInvalidInput, "invalid did")

	// ErrForeignHost indicates a DID hosted outside this service.
	ErrForeignHost = errors.Wrap(errors.ErrInvalidInput, "did is not hosted by this service")

	// ErrDocumentNotFound indicates the DID document could not be retrieved.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "did document not found")

	// ErrVerificationMethodNotFound indicates the document has no such verification method.
	ErrVerificationMethodNotFound = errors.Wrap(errors.ErrNotFound, "verification method not found")

	// ErrInvalidPublicKey indicates a verification method without a usable Ed25519 key.
	ErrInvalidPublicKey = errors.Wrap(errors.ErrInvalidInput, "invalid verification method key")

	// ErrKeyNotInVault indicates a wallet key whose custody key is missing.
	ErrKeyNotInVault = errors.Wrap(errors.ErrCustodyFailure, "wallet key missing in vault")
)
