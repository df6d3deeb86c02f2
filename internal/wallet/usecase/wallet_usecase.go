package usecase

import (
	"context"
	"errors"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/events"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

type walletUseCase struct {
	txManager         database.TxManager
	walletRepo        WalletRepository
	credentialRepo    CredentialReader
	publisher         events.Publisher
	authorityWalletID string
}

// NewWalletUseCase creates a WalletUseCase. Events are published through
// publisher inside the transaction of the write raising them.
func NewWalletUseCase(
	txManager database.TxManager,
	walletRepo WalletRepository,
	credentialRepo CredentialReader,
	publisher events.Publisher,
	authorityWalletID string,
) WalletUseCase {
	return &walletUseCase{
		txManager:         txManager,
		walletRepo:        walletRepo,
		credentialRepo:    credentialRepo,
		publisher:         publisher,
		authorityWalletID: authorityWalletID,
	}
}

func (w *walletUseCase) Create(
	ctx context.Context,
	input walletDomain.CreateWalletInput,
) (*walletDomain.Wallet, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := &walletDomain.Wallet{
		ID:        input.ID,
		Name:      input.Name,
		CreatedAt: now,
		UpdatedAt: now,
		Keys:      []walletDomain.StoredKey{},
	}

	var created *walletDomain.Wallet
	err := w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := w.walletRepo.Exists(txCtx, wallet.ID)
		if err != nil {
			return err
		}
		if exists {
			return walletDomain.ErrWalletAlreadyExists
		}

		if err := w.publisher.Publish(txCtx, events.NewWalletEvent(events.WalletCreating, wallet.ID)); err != nil {
			return err
		}
		if err := w.walletRepo.Create(txCtx, wallet); err != nil {
			return err
		}
		if err := w.publisher.Publish(txCtx, events.NewWalletEvent(events.WalletCreated, wallet.ID)); err != nil {
			return err
		}

		// Listeners may have added keys and holdings.
		created, err = w.walletRepo.Get(txCtx, wallet.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (w *walletUseCase) Update(ctx context.Context, wallet *walletDomain.Wallet) error {
	return w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		stored, err := w.walletRepo.Get(txCtx, wallet.ID)
		if err != nil {
			return err
		}

		updated := *wallet
		updated.CreatedAt = stored.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		if err := w.walletRepo.Update(txCtx, &updated); err != nil {
			return err
		}
		wallet.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (w *walletUseCase) Delete(ctx context.Context, walletID string) error {
	if walletID == w.authorityWalletID {
		return walletDomain.ErrAuthorityWalletProtected
	}
	return w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return w.walletRepo.Delete(txCtx, walletID)
	})
}

func (w *walletUseCase) Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return w.walletRepo.Get(ctx, walletID)
}

func (w *walletUseCase) List(
	ctx context.Context,
	q walletDomain.WalletQuery,
) ([]*walletDomain.Wallet, error) {
	return w.walletRepo.List(ctx, q)
}

func (w *walletUseCase) Exists(ctx context.Context, walletID string) (bool, error) {
	return w.walletRepo.Exists(ctx, walletID)
}

func (w *walletUseCase) Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error) {
	return w.walletRepo.Count(ctx, q)
}

func (w *walletUseCase) StoreCredential(ctx context.Context, walletID, credentialID string) error {
	return w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := w.walletRepo.Exists(txCtx, walletID)
		if err != nil {
			return err
		}
		if !exists {
			return walletDomain.ErrWalletNotFound
		}

		vc, err := w.credentialRepo.Get(txCtx, credentialID)
		if err != nil {
			return err
		}

		held, err := w.walletRepo.HasHolding(txCtx, walletID, credentialID)
		if err != nil {
			return err
		}
		if held {
			return walletDomain.ErrCredentialAlreadyStored
		}

		storing := events.NewCredentialEvent(events.CredentialStoring, walletID, credentialID, vc.Type)
		if err := w.publisher.Publish(txCtx, storing); err != nil {
			return err
		}
		if err := w.walletRepo.AddHolding(txCtx, walletID, credentialID, time.Now().UTC()); err != nil {
			return err
		}
		stored := events.NewCredentialEvent(events.CredentialStored, walletID, credentialID, vc.Type)
		return w.publisher.Publish(txCtx, stored)
	})
}

func (w *walletUseCase) RemoveCredential(ctx context.Context, walletID, credentialID string) error {
	return w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		removed, err := w.walletRepo.RemoveHolding(txCtx, walletID, credentialID)
		if err != nil || !removed {
			return err
		}

		var types []string
		vc, err := w.credentialRepo.Get(txCtx, credentialID)
		switch {
		case err == nil:
			types = vc.Type
		case !errors.Is(err, credentialDomain.ErrCredentialNotFound):
			return apperrors.Wrap(err, "failed to load removed credential")
		}

		removedEvent := events.NewCredentialEvent(events.CredentialRemoved, walletID, credentialID, types)
		return w.publisher.Publish(txCtx, removedEvent)
	})
}
