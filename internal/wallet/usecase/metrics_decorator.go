package usecase

import (
	"context"
	"time"

	"github.com/allisson/wallets/internal/metrics"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// walletUseCaseWithMetrics decorates WalletUseCase with metrics instrumentation.
type walletUseCaseWithMetrics struct {
	next    WalletUseCase
	metrics metrics.BusinessMetrics
}

// NewWalletUseCaseWithMetrics wraps a WalletUseCase with metrics recording.
// Read operations are not recorded.
func NewWalletUseCaseWithMetrics(useCase WalletUseCase, m metrics.BusinessMetrics) WalletUseCase {
	return &walletUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (w *walletUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, w.metrics, metrics.DomainWallets, operation, start, err)
}

// Create records metrics for wallet creation, including the creation pipeline.
func (w *walletUseCaseWithMetrics) Create(
	ctx context.Context,
	input walletDomain.CreateWalletInput,
) (*walletDomain.Wallet, error) {
	start := time.Now()
	wallet, err := w.next.Create(ctx, input)
	w.record(ctx, "wallet_create", start, err)
	return wallet, err
}

// Update records metrics for wallet updates.
func (w *walletUseCaseWithMetrics) Update(ctx context.Context, wallet *walletDomain.Wallet) error {
	start := time.Now()
	err := w.next.Update(ctx, wallet)
	w.record(ctx, "wallet_update", start, err)
	return err
}

// Delete records metrics for wallet deletion.
func (w *walletUseCaseWithMetrics) Delete(ctx context.Context, walletID string) error {
	start := time.Now()
	err := w.next.Delete(ctx, walletID)
	w.record(ctx, "wallet_delete", start, err)
	return err
}

func (w *walletUseCaseWithMetrics) Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return w.next.Get(ctx, walletID)
}

func (w *walletUseCaseWithMetrics) List(
	ctx context.Context,
	q walletDomain.WalletQuery,
) ([]*walletDomain.Wallet, error) {
	return w.next.List(ctx, q)
}

func (w *walletUseCaseWithMetrics) Exists(ctx context.Context, walletID string) (bool, error) {
	return w.next.Exists(ctx, walletID)
}

func (w *walletUseCaseWithMetrics) Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error) {
	return w.next.Count(ctx, q)
}

// StoreCredential records metrics for holding writes.
func (w *walletUseCaseWithMetrics) StoreCredential(ctx context.Context, walletID, credentialID string) error {
	start := time.Now()
	err := w.next.StoreCredential(ctx, walletID, credentialID)
	w.record(ctx, "credential_store", start, err)
	return err
}

// RemoveCredential records metrics for holding removals.
func (w *walletUseCaseWithMetrics) RemoveCredential(ctx context.Context, walletID, credentialID string) error {
	start := time.Now()
	err := w.next.RemoveCredential(ctx, walletID, credentialID)
	w.record(ctx, "credential_remove", start, err)
	return err
}
