package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

type mockWalletManager struct {
	mock.Mock
}

func (m *mockWalletManager) Create(
	ctx context.Context,
	input walletDomain.CreateWalletInput,
) (*walletDomain.Wallet, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*walletDomain.Wallet), args.Error(1)
}

func (m *mockWalletManager) Delete(ctx context.Context, walletID string) error {
	return m.Called(ctx, walletID).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCreateWallet(t *testing.T) {
	ctx := context.Background()
	input := walletDomain.CreateWalletInput{ID: "BPNL000000000001", Name: "Acme"}
	keyID := uuid.New()
	wallet := &walletDomain.Wallet{
		ID:   input.ID,
		Name: input.Name,
		Keys: []walletDomain.StoredKey{{KeyID: keyID, DidFragment: "key-1"}},
	}

	t.Run("text", func(t *testing.T) {
		wallets := &mockWalletManager{}
		wallets.On("Create", ctx, input).Return(wallet, nil).Once()
		var out bytes.Buffer

		err := RunCreateWallet(ctx, wallets, discardLogger(), input.ID, input.Name, "text", &out)
		require.NoError(t, err)
		require.Contains(t, out.String(), "Wallet ID: BPNL000000000001")
		require.Contains(t, out.String(), "Keys: 1")
		wallets.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		wallets := &mockWalletManager{}
		wallets.On("Create", ctx, input).Return(wallet, nil).Once()
		var out bytes.Buffer

		err := RunCreateWallet(ctx, wallets, discardLogger(), input.ID, input.Name, "json", &out)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, "BPNL000000000001", result["wallet_id"])
		require.Equal(t, []any{keyID.String()}, result["key_ids"])
	})

	t.Run("error", func(t *testing.T) {
		wallets := &mockWalletManager{}
		wallets.On("Create", ctx, input).Return(nil, walletDomain.ErrWalletAlreadyExists).Once()

		err := RunCreateWallet(ctx, wallets, discardLogger(), input.ID, input.Name, "text", io.Discard)
		require.ErrorIs(t, err, walletDomain.ErrWalletAlreadyExists)
		require.Contains(t, err.Error(), "failed to create wallet")
	})
}

func TestRunDeleteWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		wallets := &mockWalletManager{}
		wallets.On("Delete", ctx, "BPNL000000000001").Return(nil).Once()
		var out bytes.Buffer

		require.NoError(t, RunDeleteWallet(ctx, wallets, discardLogger(), "BPNL000000000001", &out))
		require.Equal(t, "Wallet BPNL000000000001 deleted\n", out.String())
	})

	t.Run("error", func(t *testing.T) {
		wallets := &mockWalletManager{}
		wallets.On("Delete", ctx, "BPNL000000000001").Return(errors.New("boom")).Once()

		err := RunDeleteWallet(ctx, wallets, discardLogger(), "BPNL000000000001", io.Discard)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to delete wallet")
	})
}
