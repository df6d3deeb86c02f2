// Package repository persists verifiable credential documents for
// PostgreSQL, MySQL and process memory.
//
// Documents are stored whole as JSON in credentials.document, with issuer
// and dates lifted into columns and types indexed in credential_types.
// Holder filtering joins wallet_credentials, the holdings relation owned by
// the wallet store.
package repository

import (
	"encoding/json"
	"math"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	apperrors "github.com/allisson/wallets/internal/errors"
)

func limitOrAll(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}

func encodeDocument(vc *credentialDomain.VerifiableCredential) ([]byte, error) {
	document, err := json.Marshal(vc)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode credential document")
	}
	return document, nil
}

func decodeDocument(document []byte) (*credentialDomain.VerifiableCredential, error) {
	var vc credentialDomain.VerifiableCredential
	if err := json.Unmarshal(document, &vc); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode credential document")
	}
	return &vc, nil
}

// distinctTypes returns the credential's types without duplicates, in order.
func distinctTypes(vc *credentialDomain.VerifiableCredential) []string {
	seen := make(map[string]struct{}, len(vc.Type))
	types := make([]string, 0, len(vc.Type))
	for _, t := range vc.Type {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types
}
