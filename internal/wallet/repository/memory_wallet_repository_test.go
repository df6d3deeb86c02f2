package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/wallets/internal/database"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

func newMemoryRepo(t *testing.T) (*MemoryWalletRepository, *database.MemoryTxManager) {
	t.Helper()
	txManager := database.NewMemoryTxManager(time.Second)
	return NewMemoryWalletRepository(txManager), txManager
}

func TestMemoryWalletRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	wallet := &walletDomain.Wallet{ID: "BPNL000000000001", Name: "Acme", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, wallet))
	assert.ErrorIs(t, repo.Create(ctx, wallet), walletDomain.ErrWalletAlreadyExists)

	key := newStoredKey("key-1", now)
	wallet.Keys = append(wallet.Keys, key)
	wallet.Name = "Acme GmbH"
	require.NoError(t, repo.Update(ctx, wallet))

	// Updating again with the same key must not duplicate it.
	require.NoError(t, repo.Update(ctx, wallet))

	got, err := repo.Get(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", got.Name)
	require.Len(t, got.Keys, 1)
	assert.Equal(t, key.KeyID, got.Keys[0].KeyID)

	// Mutating the returned wallet does not leak into the store.
	got.Keys[0].DidFragment = "changed"
	again, err := repo.Get(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, "key-1", again.Keys[0].DidFragment)

	require.NoError(t, repo.Delete(ctx, wallet.ID))
	_, err = repo.Get(ctx, wallet.ID)
	assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, wallet.ID), walletDomain.ErrWalletNotFound)
	assert.ErrorIs(t, repo.Update(ctx, wallet), walletDomain.ErrWalletNotFound)
}

func TestMemoryWalletRepository_DuplicateFragment(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)
	now := time.Now().UTC()

	wallet := &walletDomain.Wallet{
		ID:   "BPNL000000000001",
		Keys: []walletDomain.StoredKey{newStoredKey("key-1", now)},
	}
	require.NoError(t, repo.Create(ctx, wallet))

	wallet.Keys = append(wallet.Keys, newStoredKey("key-1", now))
	assert.ErrorIs(t, repo.Update(ctx, wallet), walletDomain.ErrDuplicateDidFragment)

	got, err := repo.Get(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Len(t, got.Keys, 1)
}

func TestMemoryWalletRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	names := []string{"Acme", "Globex", "ACME Logistics"}
	ids := []string{"BPNL000000000001", "BPNL000000000002", "BPNL000000000003"}
	for i := range names {
		require.NoError(t, repo.Create(ctx, &walletDomain.Wallet{
			ID:        ids[i],
			Name:      names[i],
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, walletDomain.WalletQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids, []string{all[0].ID, all[1].ID, all[2].ID})

	acme, err := repo.List(ctx, walletDomain.WalletQuery{Name: "acme"})
	require.NoError(t, err)
	require.Len(t, acme, 2)
	assert.Equal(t, "BPNL000000000001", acme[0].ID)
	assert.Equal(t, "BPNL000000000003", acme[1].ID)

	page, err := repo.List(ctx, walletDomain.WalletQuery{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "BPNL000000000002", page[0].ID)

	empty, err := repo.List(ctx, walletDomain.WalletQuery{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	count, err := repo.Count(ctx, walletDomain.WalletQuery{Name: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryWalletRepository_Holdings(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)
	now := time.Now().UTC()

	assert.ErrorIs(t, repo.AddHolding(ctx, "BPNL000000000404", "urn:uuid:1", now), walletDomain.ErrWalletNotFound)

	require.NoError(t, repo.Create(ctx, &walletDomain.Wallet{ID: "BPNL000000000001"}))
	require.NoError(t, repo.AddHolding(ctx, "BPNL000000000001", "urn:uuid:1", now))
	assert.ErrorIs(t,
		repo.AddHolding(ctx, "BPNL000000000001", "urn:uuid:1", now),
		walletDomain.ErrCredentialAlreadyStored,
	)

	held, err := repo.HasHolding(ctx, "BPNL000000000001", "urn:uuid:1")
	require.NoError(t, err)
	assert.True(t, held)
	assert.Contains(t, repo.HeldCredentialIDs(ctx, "BPNL000000000001"), "urn:uuid:1")
	assert.Equal(t, 1, repo.HoldingCount(ctx))

	removed, err := repo.RemoveHolding(ctx, "BPNL000000000001", "urn:uuid:1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveHolding(ctx, "BPNL000000000001", "urn:uuid:1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryWalletRepository_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	repo, txManager := newMemoryRepo(t)
	boom := errors.New("listener failed")

	err := txManager.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, &walletDomain.Wallet{ID: "BPNL000000000001"}))
		require.NoError(t, repo.AddHolding(ctx, "BPNL000000000001", "urn:uuid:1", time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := repo.Exists(ctx, "BPNL000000000001")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, repo.HoldingCount(ctx))
}
