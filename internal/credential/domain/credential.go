// Package domain defines verifiable credentials and the queries over them.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Credential types known to the service. Framework types beyond these are
// configured.
const (
	TypeVerifiableCredential = "VerifiableCredential"
	TypeBpnCredential        = "BpnCredential"
	TypeMembershipCredential = "MembershipCredential"
	TypeDismantlerCredential = "DismantlerCredential"
	TypeSummaryCredential    = "SummaryCredential"
)

// ProofTypeEd25519Signature2020 is the only proof suite issued by the service.
const ProofTypeEd25519Signature2020 = "Ed25519Signature2020"

// ProofPurposeAssertionMethod is the purpose of issuer proofs.
const ProofPurposeAssertionMethod = "assertionMethod"

// VerifiableCredential is a signed W3C credential. Once issued it is never
// edited; removing it from a wallet only deletes the holding.
type VerifiableCredential struct {
	Context           []string       `json:"@context"`
	ID                string         `json:"id"`
	Type              []string       `json:"type"`
	Issuer            string         `json:"issuer"`
	IssuanceDate      time.Time      `json:"issuanceDate"`
	ExpirationDate    time.Time      `json:"expirationDate"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	Proof             *Proof         `json:"proof,omitempty"`
}

// Proof is a linked data proof attached to a credential.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofValue         string    `json:"proofValue"`
}

// HasType reports whether the credential declares credentialType.
func (vc *VerifiableCredential) HasType(credentialType string) bool {
	for _, t := range vc.Type {
		if t == credentialType {
			return true
		}
	}
	return false
}

// SpecificType returns the first type other than VerifiableCredential.
func (vc *VerifiableCredential) SpecificType() string {
	for _, t := range vc.Type {
		if t != TypeVerifiableCredential {
			return t
		}
	}
	return ""
}

// IsExpired reports whether the credential expired at now.
func (vc *VerifiableCredential) IsExpired(now time.Time) bool {
	return !vc.ExpirationDate.IsZero() && now.After(vc.ExpirationDate)
}

// Unsigned returns a copy of the credential without its proof.
func (vc *VerifiableCredential) Unsigned() *VerifiableCredential {
	clone := *vc
	clone.Proof = nil
	return &clone
}

// ToMap returns the JSON object form of the credential.
func (vc *VerifiableCredential) ToMap() (map[string]any, error) {
	data, err := json.Marshal(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return doc, nil
}

// CredentialQuery filters credential listings; zero fields do not filter.
// Types matches credentials declaring any of the given types. Results are
// ordered by issuance date, newest first.
type CredentialQuery struct {
	HolderWalletID string
	Types          []string
	Issuer         string
	Offset         int
	Limit          int
}
