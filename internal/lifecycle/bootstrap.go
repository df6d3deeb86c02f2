package lifecycle

import (
	"context"
	"log/slog"

	"github.com/allisson/wallets/internal/errors"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// WalletCreator is the part of the wallet store used by Bootstrap.
type WalletCreator interface {
	Create(ctx context.Context, input walletDomain.CreateWalletInput) (*walletDomain.Wallet, error)
	Exists(ctx context.Context, walletID string) (bool, error)
}

// Bootstrap prepares the authority wallet at startup.
type Bootstrap struct {
	wallets     WalletCreator
	provisioner *KeyProvisioner
	walletID    string
	walletName  string
	logger      *slog.Logger
}

// NewBootstrap creates a Bootstrap for the authority wallet walletID.
func NewBootstrap(
	wallets WalletCreator,
	provisioner *KeyProvisioner,
	walletID, walletName string,
	logger *slog.Logger,
) *Bootstrap {
	return &Bootstrap{
		wallets:     wallets,
		provisioner: provisioner,
		walletID:    walletID,
		walletName:  walletName,
		logger:      logger,
	}
}

// EnsureAuthorityWallet creates the authority wallet through the regular
// creation pipeline when it does not exist. An existing authority wallet
// without keys is given one.
func (b *Bootstrap) EnsureAuthorityWallet(ctx context.Context) error {
	exists, err := b.wallets.Exists(ctx, b.walletID)
	if err != nil {
		return err
	}
	if exists {
		_, err := b.provisioner.Provision(ctx, b.walletID)
		return err
	}

	_, err = b.wallets.Create(ctx, walletDomain.CreateWalletInput{ID: b.walletID, Name: b.walletName})
	if errors.Is(err, walletDomain.ErrWalletAlreadyExists) {
		// Another instance won the race.
		return nil
	}
	if err != nil {
		return err
	}

	b.logger.Info("authority wallet created", slog.String("wallet_id", b.walletID))
	return nil
}
