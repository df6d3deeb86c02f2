package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPipeline_Publish(t *testing.T) {
	t.Run("runs listeners in priority order regardless of registration order", func(t *testing.T) {
		var calls []string
		record := func(name string) Handler {
			return func(context.Context, Event) error {
				calls = append(calls, name)
				return nil
			}
		}

		p := newTestPipeline()
		p.Register(
			Listener{Name: "issue", Kinds: []Kind{WalletCreated}, Priority: 20, Handle: record("issue")},
			Listener{Name: "provision", Kinds: []Kind{WalletCreated}, Priority: 10, Handle: record("provision")},
			Listener{Name: "audit", Priority: 20, Handle: record("audit")},
		)

		err := p.Publish(context.Background(), NewWalletEvent(WalletCreated, "BPNL000000000001"))

		require.NoError(t, err)
		assert.Equal(t, []string{"provision", "issue", "audit"}, calls)
	})

	t.Run("skips listeners of other kinds", func(t *testing.T) {
		called := false
		p := newTestPipeline()
		p.Register(Listener{
			Name:  "summary",
			Kinds: []Kind{CredentialStored},
			Handle: func(context.Context, Event) error {
				called = true
				return nil
			},
		})

		err := p.Publish(context.Background(), NewWalletEvent(WalletCreated, "BPNL000000000001"))

		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("stops at the first failing listener", func(t *testing.T) {
		boom := errors.New("vault unavailable")
		secondCalled := false

		p := newTestPipeline()
		p.Register(
			Listener{Name: "first", Priority: 1, Handle: func(context.Context, Event) error { return boom }},
			Listener{Name: "second", Priority: 2, Handle: func(context.Context, Event) error {
				secondCalled = true
				return nil
			}},
		)

		err := p.Publish(context.Background(), NewWalletEvent(WalletCreated, "BPNL000000000001"))

		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "listener first failed on wallet.created")
		assert.False(t, secondCalled)
	})
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	p := newTestPipeline()
	p.Register(recorder.Listener())

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, NewWalletEvent(WalletCreating, "W1")))
	require.NoError(t, p.Publish(ctx, NewCredentialEvent(CredentialStored, "W1", "vc-1", []string{"VerifiableCredential", "BpnCredential"})))

	assert.Equal(t, []Kind{WalletCreating, CredentialStored}, recorder.Kinds())
	assert.True(t, recorder.Events()[1].HasType("BpnCredential"))
	assert.False(t, recorder.Events()[1].HasType("SummaryCredential"))

	recorder.Reset()
	assert.Empty(t, recorder.Events())
}
