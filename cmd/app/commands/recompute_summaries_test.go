package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/did"
	"github.com/allisson/wallets/internal/summary"
)

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, walletID string) (*credentialDomain.VerifiableCredential, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialDomain.VerifiableCredential), args.Error(1)
}

type mockSweep struct {
	mock.Mock
}

func (m *mockSweep) Sweep(ctx context.Context) (summary.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(summary.SweepResult), args.Error(1)
}

func TestRunRecomputeSummaries(t *testing.T) {
	ctx := context.Background()
	vc := &credentialDomain.VerifiableCredential{
		ID:                "did:web:localhost:BPNL000000000000#1",
		ExpirationDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		CredentialSubject: map[string]any{"items": []string{credentialDomain.TypeBpnCredential}},
	}

	t.Run("single-wallet", func(t *testing.T) {
		recomputer := &mockRecomputer{}
		recomputer.On("Recompute", ctx, "BPNL000000000001").Return(vc, nil).Once()
		sweep := &mockSweep{}
		var out bytes.Buffer

		err := RunRecomputeSummaries(ctx, recomputer, sweep, discardLogger(), "BPNL000000000001", "text", &out)
		require.NoError(t, err)
		require.Contains(t, out.String(), "Items: [BpnCredential]")
		require.Contains(t, out.String(), "Expires: 2027-01-01T00:00:00Z")
		sweep.AssertNotCalled(t, "Sweep", mock.Anything)
	})

	t.Run("single-wallet-error", func(t *testing.T) {
		recomputer := &mockRecomputer{}
		recomputer.On("Recompute", ctx, "BPNL000000000001").Return(nil, errors.New("boom")).Once()

		err := RunRecomputeSummaries(ctx, recomputer, &mockSweep{}, discardLogger(), "BPNL000000000001", "text", io.Discard)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to recompute summary")
	})

	t.Run("every-wallet-json", func(t *testing.T) {
		sweep := &mockSweep{}
		sweep.On("Sweep", ctx).Return(summary.SweepResult{Recomputed: 3, Failed: 1}, nil).Once()
		var out bytes.Buffer

		err := RunRecomputeSummaries(ctx, &mockRecomputer{}, sweep, discardLogger(), "", "json", &out)
		require.NoError(t, err)

		var result map[string]int64
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, map[string]int64{"recomputed": 3, "failed": 1}, result)
	})

	t.Run("every-wallet-text", func(t *testing.T) {
		sweep := &mockSweep{}
		sweep.On("Sweep", ctx).Return(summary.SweepResult{Recomputed: 2}, nil).Once()
		var out bytes.Buffer

		require.NoError(t, RunRecomputeSummaries(ctx, &mockRecomputer{}, sweep, discardLogger(), "", "text", &out))
		require.Equal(t, "Recomputed 2 summary credential(s), 0 failed\n", out.String())
	})
}

type stubDocuments struct {
	doc *did.Document
	err error
}

func (s stubDocuments) CreateDidDocument(context.Context, string) (*did.Document, error) {
	return s.doc, s.err
}

func TestRunDIDDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		doc := &did.Document{ID: "did:web:localhost:BPNL000000000001"}

		require.NoError(t, RunDIDDocument(ctx, stubDocuments{doc: doc}, "BPNL000000000001", &out))
		require.Contains(t, out.String(), `"id": "did:web:localhost:BPNL000000000001"`)
	})

	t.Run("error", func(t *testing.T) {
		err := RunDIDDocument(ctx, stubDocuments{err: errors.New("boom")}, "BPNL000000000001", io.Discard)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to build did document")
	})
}
