// Package lifecycle provisions new wallets: it owns the listeners run by
// the event pipeline when a wallet is created and the startup bootstrap of
// the authority wallet.
//
// A created wallet first receives its signing key, then its business
// partner credential. The order is fixed by listener priority.
package lifecycle

import (
	"context"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/events"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// Listener priorities of the wallet creation pipeline.
const (
	KeyProvisioningPriority  = 10
	BaselineIssuancePriority = 20
)

const initialDidFragment = "key-1"

// WalletRepository locks and updates wallets inside the creating transaction.
type WalletRepository interface {
	GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
	Update(ctx context.Context, wallet *walletDomain.Wallet) error
}

// BusinessPartnerIssuer issues the baseline credential of a wallet.
type BusinessPartnerIssuer interface {
	IssueBusinessPartner(ctx context.Context, holderWalletID string) (*credentialDomain.VerifiableCredential, error)
}

// Listeners returns the wallet creation listeners in execution order.
func Listeners(provisioner *KeyProvisioner, baseline *BaselineIssuer) []events.Listener {
	return []events.Listener{
		provisioner.Listener(),
		baseline.Listener(),
	}
}
