// Package usecase issues the credentials of each type to hosted wallets and
// records them as held.
package usecase

import (
	"context"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
)

// CredentialIssuer signs credentials.
type CredentialIssuer interface {
	Issue(ctx context.Context, req issuanceService.Request) (*credentialDomain.VerifiableCredential, error)
	HolderDID(walletID string) string
}

// CredentialRepository persists credential documents.
type CredentialRepository interface {
	Create(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
	Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error)
}

// WalletStore checks wallets and records holdings.
type WalletStore interface {
	Exists(ctx context.Context, walletID string) (bool, error)
	StoreCredential(ctx context.Context, walletID, credentialID string) error
}

// IssuanceUseCase issues credentials to hosted wallets. Each operation
// persists the credential and the holding in one transaction.
type IssuanceUseCase interface {
	// IssueBusinessPartner issues the baseline credential of a wallet.
	IssueBusinessPartner(ctx context.Context, holderWalletID string) (*credentialDomain.VerifiableCredential, error)
	IssueMembership(
		ctx context.Context,
		req issuanceDomain.MembershipRequest,
	) (*credentialDomain.VerifiableCredential, error)
	IssueDismantler(
		ctx context.Context,
		req issuanceDomain.DismantlerRequest,
	) (*credentialDomain.VerifiableCredential, error)
	IssueFramework(
		ctx context.Context,
		req issuanceDomain.FrameworkRequest,
	) (*credentialDomain.VerifiableCredential, error)
}
