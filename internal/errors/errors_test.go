package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("KeepsSentinel", func(t *testing.T) {
		err := Wrap(ErrNotFound, "wallet BPNL000000000001")

		require.Error(t, err)
		assert.Equal(t, "wallet BPNL000000000001: not found", err.Error())
		assert.True(t, Is(err, ErrNotFound))
		assert.False(t, Is(err, ErrConflict))
	})

	t.Run("Nested", func(t *testing.T) {
		err := Wrap(Wrap(ErrCustodyFailure, "unwrap custody key"), "sign credential")

		assert.Equal(t, "sign credential: unwrap custody key: custody failure", err.Error())
		assert.True(t, Is(err, ErrCustodyFailure))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "ignored"))
	})
}

func TestNew(t *testing.T) {
	err := New("no authority wallet")

	assert.EqualError(t, err, "no authority wallet")
	assert.False(t, Is(err, ErrConfigurationFailure))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrCustodyFailure, ErrConfigurationFailure}

	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}
