package repository

import (
	"math"

	"github.com/google/uuid"

	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// limitOrAll maps a non-positive limit to "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}

// missingKeys returns the keys of candidates whose KeyID is not in stored,
// in candidate order.
func missingKeys(stored, candidates []walletDomain.StoredKey) []walletDomain.StoredKey {
	known := make(map[uuid.UUID]struct{}, len(stored))
	for _, key := range stored {
		known[key.KeyID] = struct{}{}
	}

	var missing []walletDomain.StoredKey
	for _, key := range candidates {
		if _, ok := known[key.KeyID]; ok {
			continue
		}
		known[key.KeyID] = struct{}{}
		missing = append(missing, key)
	}
	return missing
}
