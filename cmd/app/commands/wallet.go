package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// WalletManager creates and deletes hosted wallets.
type WalletManager interface {
	Create(ctx context.Context, input walletDomain.CreateWalletInput) (*walletDomain.Wallet, error)
	Delete(ctx context.Context, walletID string) error
}

// RunCreateWallet creates a hosted wallet. Creation provisions its signing
// key and issues its business partner credential.
//
// Requirements: Database must be migrated and accessible.
func RunCreateWallet(
	ctx context.Context,
	wallets WalletManager,
	logger *slog.Logger,
	walletID string,
	name string,
	format string,
	writer io.Writer,
) error {
	logger.Info("creating wallet", slog.String("wallet_id", walletID))

	wallet, err := wallets.Create(ctx, walletDomain.CreateWalletInput{ID: walletID, Name: name})
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	if format == "json" {
		keyIDs := make([]string, 0, len(wallet.Keys))
		for _, key := range wallet.Keys {
			keyIDs = append(keyIDs, key.KeyID.String())
		}
		result := map[string]any{
			"wallet_id": wallet.ID,
			"name":      wallet.Name,
			"key_ids":   keyIDs,
		}
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "Wallet created successfully!")
		_, _ = fmt.Fprintf(writer, "Wallet ID: %s\n", wallet.ID)
		_, _ = fmt.Fprintf(writer, "Name: %s\n", wallet.Name)
		_, _ = fmt.Fprintf(writer, "Keys: %d\n", len(wallet.Keys))
	}

	logger.Info("wallet created successfully",
		slog.String("wallet_id", wallet.ID),
		slog.Int("keys", len(wallet.Keys)),
	)
	return nil
}

// RunDeleteWallet deletes a hosted wallet and its holdings. Credential
// documents are kept.
func RunDeleteWallet(
	ctx context.Context,
	wallets WalletManager,
	logger *slog.Logger,
	walletID string,
	writer io.Writer,
) error {
	logger.Info("deleting wallet", slog.String("wallet_id", walletID))

	if err := wallets.Delete(ctx, walletID); err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Wallet %s deleted\n", walletID)
	logger.Info("wallet deleted successfully", slog.String("wallet_id", walletID))
	return nil
}
