package domain

import (
	"github.com/allisson/wallets/internal/errors"
)

// Issuance errors.
var (
	// ErrAuthorityWalletNotFound indicates the configured issuer wallet does not exist.
	ErrAuthorityWalletNotFound = errors.Wrap(errors.ErrConfigurationFailure, "authority wallet not found")

	// ErrUnknownFrameworkType indicates a framework credential type that is not configured.
	ErrUnknownFrameworkType = errors.Wrap(errors.ErrInvalidInput, "unknown framework credential type")
)
