package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/wallets/internal/database"
	"github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/events"
	keyvaultService "github.com/allisson/wallets/internal/keyvault/service"
)

// KeyProvisioner gives a wallet without keys its first signing key.
type KeyProvisioner struct {
	txManager  database.TxManager
	walletRepo WalletRepository
	factory    *keyvaultService.KeyFactory
	vault      keyvaultService.KeyVault
	logger     *slog.Logger
}

// NewKeyProvisioner creates a KeyProvisioner.
func NewKeyProvisioner(
	txManager database.TxManager,
	walletRepo WalletRepository,
	factory *keyvaultService.KeyFactory,
	vault keyvaultService.KeyVault,
	logger *slog.Logger,
) *KeyProvisioner {
	return &KeyProvisioner{
		txManager:  txManager,
		walletRepo: walletRepo,
		factory:    factory,
		vault:      vault,
		logger:     logger,
	}
}

// Listener subscribes Provision to WalletCreated.
func (p *KeyProvisioner) Listener() events.Listener {
	return events.Listener{
		Name:     "key-provisioning",
		Kinds:    []events.Kind{events.WalletCreated},
		Priority: KeyProvisioningPriority,
		Handle: func(ctx context.Context, event events.Event) error {
			_, err := p.Provision(ctx, event.WalletID)
			return err
		},
	}
}

// Provision stores a new key under the initial DID fragment unless the
// wallet already has one. The wallet row stays locked until the enclosing
// transaction ends, so duplicate deliveries for one wallet serialize and
// the later one finds the key.
func (p *KeyProvisioner) Provision(ctx context.Context, walletID string) (provisioned bool, err error) {
	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		wallet, err := p.walletRepo.GetForUpdate(txCtx, walletID)
		if err != nil {
			return err
		}
		if len(wallet.Keys) > 0 {
			return nil
		}

		key, err := p.factory.Generate(initialDidFragment)
		if err != nil {
			return errors.Wrap(err, "failed to generate wallet key")
		}
		defer key.Zero()

		stored, err := p.vault.Store(txCtx, walletID, key)
		if err != nil {
			return err
		}

		wallet.Keys = append(wallet.Keys, stored)
		wallet.UpdatedAt = time.Now().UTC()
		if err := p.walletRepo.Update(txCtx, wallet); err != nil {
			return err
		}
		provisioned = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if provisioned {
		p.logger.Info("wallet key provisioned",
			slog.String("wallet_id", walletID),
			slog.String("did_fragment", initialDidFragment),
		)
	}
	return provisioned, nil
}

