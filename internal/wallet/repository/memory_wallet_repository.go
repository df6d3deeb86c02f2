package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/allisson/wallets/internal/database"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// MemoryWalletRepository keeps wallets in process memory. It takes part in
// memory transactions and is used by DB_DRIVER=memory and by tests.
type MemoryWalletRepository struct {
	txManager *database.MemoryTxManager
	wallets   map[string]walletDomain.Wallet
	holdings  map[string]map[string]time.Time
}

// NewMemoryWalletRepository creates a MemoryWalletRepository registered with txManager.
func NewMemoryWalletRepository(txManager *database.MemoryTxManager) *MemoryWalletRepository {
	r := &MemoryWalletRepository{
		txManager: txManager,
		wallets:   make(map[string]walletDomain.Wallet),
		holdings:  make(map[string]map[string]time.Time),
	}
	txManager.Register(r)
	return r
}

// Snapshot implements database.Snapshotter.
func (r *MemoryWalletRepository) Snapshot() func() {
	wallets := make(map[string]walletDomain.Wallet, len(r.wallets))
	for id, wallet := range r.wallets {
		wallets[id] = cloneWallet(wallet)
	}
	holdings := make(map[string]map[string]time.Time, len(r.holdings))
	for walletID, held := range r.holdings {
		copied := make(map[string]time.Time, len(held))
		for credentialID, at := range held {
			copied[credentialID] = at
		}
		holdings[walletID] = copied
	}

	return func() {
		r.wallets = wallets
		r.holdings = holdings
	}
}

// Create implements the wallet repository.
func (r *MemoryWalletRepository) Create(ctx context.Context, wallet *walletDomain.Wallet) error {
	defer r.txManager.Enter(ctx)()

	if _, ok := r.wallets[wallet.ID]; ok {
		return walletDomain.ErrWalletAlreadyExists
	}
	if hasDuplicateFragment(nil, wallet.Keys) {
		return walletDomain.ErrDuplicateDidFragment
	}
	r.wallets[wallet.ID] = cloneWallet(*wallet)
	return nil
}

// Update implements the wallet repository.
func (r *MemoryWalletRepository) Update(ctx context.Context, wallet *walletDomain.Wallet) error {
	defer r.txManager.Enter(ctx)()

	stored, ok := r.wallets[wallet.ID]
	if !ok {
		return walletDomain.ErrWalletNotFound
	}

	added := missingKeys(stored.Keys, wallet.Keys)
	if hasDuplicateFragment(stored.Keys, added) {
		return walletDomain.ErrDuplicateDidFragment
	}

	stored = cloneWallet(stored)
	stored.Name = wallet.Name
	stored.UpdatedAt = wallet.UpdatedAt
	stored.Keys = append(stored.Keys, added...)
	r.wallets[wallet.ID] = stored
	return nil
}

// Delete implements the wallet repository.
func (r *MemoryWalletRepository) Delete(ctx context.Context, walletID string) error {
	defer r.txManager.Enter(ctx)()

	if _, ok := r.wallets[walletID]; !ok {
		return walletDomain.ErrWalletNotFound
	}
	delete(r.wallets, walletID)
	delete(r.holdings, walletID)
	return nil
}

// Get implements the wallet repository.
func (r *MemoryWalletRepository) Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	defer r.txManager.Enter(ctx)()

	wallet, ok := r.wallets[walletID]
	if !ok {
		return nil, walletDomain.ErrWalletNotFound
	}
	clone := cloneWallet(wallet)
	return &clone, nil
}

// GetForUpdate implements the wallet repository. Memory transactions are
// already serialized, so it is equivalent to Get.
func (r *MemoryWalletRepository) GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error) {
	return r.Get(ctx, walletID)
}

// List implements the wallet repository.
func (r *MemoryWalletRepository) List(
	ctx context.Context,
	q walletDomain.WalletQuery,
) ([]*walletDomain.Wallet, error) {
	defer r.txManager.Enter(ctx)()

	matched := r.filter(q)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], nil
}

// Count implements the wallet repository.
func (r *MemoryWalletRepository) Count(ctx context.Context, q walletDomain.WalletQuery) (int64, error) {
	defer r.txManager.Enter(ctx)()
	return int64(len(r.filter(q))), nil
}

// Exists implements the wallet repository.
func (r *MemoryWalletRepository) Exists(ctx context.Context, walletID string) (bool, error) {
	defer r.txManager.Enter(ctx)()
	_, ok := r.wallets[walletID]
	return ok, nil
}

// AddHolding implements the wallet repository.
func (r *MemoryWalletRepository) AddHolding(
	ctx context.Context,
	walletID, credentialID string,
	createdAt time.Time,
) error {
	defer r.txManager.Enter(ctx)()

	if _, ok := r.wallets[walletID]; !ok {
		return walletDomain.ErrWalletNotFound
	}
	held, ok := r.holdings[walletID]
	if !ok {
		held = make(map[string]time.Time)
		r.holdings[walletID] = held
	}
	if _, ok := held[credentialID]; ok {
		return walletDomain.ErrCredentialAlreadyStored
	}
	held[credentialID] = createdAt
	return nil
}

// RemoveHolding implements the wallet repository.
func (r *MemoryWalletRepository) RemoveHolding(ctx context.Context, walletID, credentialID string) (bool, error) {
	defer r.txManager.Enter(ctx)()

	held := r.holdings[walletID]
	if _, ok := held[credentialID]; !ok {
		return false, nil
	}
	delete(held, credentialID)
	return true, nil
}

// HasHolding implements the wallet repository.
func (r *MemoryWalletRepository) HasHolding(ctx context.Context, walletID, credentialID string) (bool, error) {
	defer r.txManager.Enter(ctx)()
	_, ok := r.holdings[walletID][credentialID]
	return ok, nil
}

// HeldCredentialIDs returns the ids of the credentials held by the wallet.
// The memory credential repository uses it to filter by holder.
func (r *MemoryWalletRepository) HeldCredentialIDs(ctx context.Context, walletID string) map[string]struct{} {
	defer r.txManager.Enter(ctx)()

	ids := make(map[string]struct{}, len(r.holdings[walletID]))
	for credentialID := range r.holdings[walletID] {
		ids[credentialID] = struct{}{}
	}
	return ids
}

// HoldingCount returns the total number of holdings across wallets.
func (r *MemoryWalletRepository) HoldingCount(ctx context.Context) int {
	defer r.txManager.Enter(ctx)()

	count := 0
	for _, held := range r.holdings {
		count += len(held)
	}
	return count
}

func (r *MemoryWalletRepository) filter(q walletDomain.WalletQuery) []*walletDomain.Wallet {
	name := strings.ToLower(q.Name)
	var matched []*walletDomain.Wallet
	for _, wallet := range r.wallets {
		if name != "" && !strings.Contains(strings.ToLower(wallet.Name), name) {
			continue
		}
		clone := cloneWallet(wallet)
		matched = append(matched, &clone)
	}
	return matched
}

func cloneWallet(wallet walletDomain.Wallet) walletDomain.Wallet {
	wallet.Keys = append([]walletDomain.StoredKey(nil), wallet.Keys...)
	return wallet
}

func hasDuplicateFragment(stored, added []walletDomain.StoredKey) bool {
	seen := make(map[string]struct{}, len(stored)+len(added))
	for _, key := range append(append([]walletDomain.StoredKey(nil), stored...), added...) {
		if _, ok := seen[key.DidFragment]; ok {
			return true
		}
		seen[key.DidFragment] = struct{}{}
	}
	return false
}
