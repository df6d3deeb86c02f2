// Package events implements the synchronous, ordered domain event pipeline.
//
// Listeners run inside the transaction of the write that raised the event,
// so a listener error rolls the whole write back.
package events

import (
	"time"
)

// Kind identifies a domain event.
type Kind string

const (
	// WalletCreating is raised before a new wallet row is written.
	WalletCreating Kind = "wallet.creating"
	// WalletCreated is raised after a new wallet row is written.
	WalletCreated Kind = "wallet.created"
	// CredentialStoring is raised before a holding is recorded.
	CredentialStoring Kind = "credential.storing"
	// CredentialStored is raised after a holding is recorded.
	CredentialStored Kind = "credential.stored"
	// CredentialRemoved is raised after a holding is deleted.
	CredentialRemoved Kind = "credential.removed"
)

// Event is a domain event about a wallet and, for credential events, the
// credential involved.
type Event struct {
	Kind            Kind      `json:"kind"`
	WalletID        string    `json:"wallet_id"`
	CredentialID    string    `json:"credential_id,omitempty"`
	CredentialTypes []string  `json:"credential_types,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewWalletEvent builds a wallet event stamped with the current time.
func NewWalletEvent(kind Kind, walletID string) Event {
	return Event{Kind: kind, WalletID: walletID, OccurredAt: time.Now().UTC()}
}

// NewCredentialEvent builds a credential event stamped with the current time.
func NewCredentialEvent(kind Kind, walletID, credentialID string, credentialTypes []string) Event {
	return Event{
		Kind:            kind,
		WalletID:        walletID,
		CredentialID:    credentialID,
		CredentialTypes: append([]string(nil), credentialTypes...),
		OccurredAt:      time.Now().UTC(),
	}
}

// HasType reports whether the event's credential declares credentialType.
func (e Event) HasType(credentialType string) bool {
	for _, t := range e.CredentialTypes {
		if t == credentialType {
			return true
		}
	}
	return false
}
