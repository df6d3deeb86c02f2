// Package usecase implements the wallet store: wallet CRUD and the holdings
// relation, each write running in one transaction together with the domain
// events it raises.
package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// WalletRepository defines wallet and holdings persistence.
type WalletRepository interface {
	Create(ctx context.Context, wallet *walletDomain.Wallet) error
	Update(ctx context.Context, wallet *walletDomain.Wallet) error
	Delete(ctx context.Context, walletID string) error
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	List(ctx context.Context, q walletDomain.WalletQuery) ([]*walletDomain.Wallet, error)
	Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error)
	Exists(ctx context.Context, walletID string) (bool, error)
	AddHolding(ctx context.Context, walletID, credentialID string, createdAt time.Time) error
	RemoveHolding(ctx context.Context, walletID, credentialID string) (bool, error)
	HasHolding(ctx context.Context, walletID, credentialID string) (bool, error)
}

// CredentialReader loads credential documents.
type CredentialReader interface {
	Get(ctx context.Context, credentialID string) (*credentialDomain.VerifiableCredential, error)
}

// WalletUseCase defines the wallet store operations.
type WalletUseCase interface {
	// Create persists a new wallet and runs the creation pipeline. The
	// returned wallet reflects every change made by listeners.
	Create(ctx context.Context, input walletDomain.CreateWalletInput) (*walletDomain.Wallet, error)
	// Update replaces the wallet name and appends keys it does not hold yet.
	// Keys missing from wallet.Keys are kept, never dropped.
	Update(ctx context.Context, wallet *walletDomain.Wallet) error
	Delete(ctx context.Context, walletID string) error
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	List(ctx context.Context, q walletDomain.WalletQuery) ([]*walletDomain.Wallet, error)
	Exists(ctx context.Context, walletID string) (bool, error)
	Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error)
	StoreCredential(ctx context.Context, walletID, credentialID string) error
	// RemoveCredential is a no-op when the wallet does not hold the credential.
	RemoveCredential(ctx context.Context, walletID, credentialID string) error
}
