package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/wallets/internal/errors"
)

func TestCreateWalletInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		input     CreateWalletInput
		shouldErr bool
	}{
		{name: "valid", input: CreateWalletInput{ID: "BPNL000000000001", Name: "Acme"}},
		{name: "missing id", input: CreateWalletInput{Name: "Acme"}, shouldErr: true},
		{name: "site bpn", input: CreateWalletInput{ID: "BPNS000000000001", Name: "Acme"}, shouldErr: true},
		{name: "missing name", input: CreateWalletInput{ID: "BPNL000000000001"}, shouldErr: true},
		{name: "padded name", input: CreateWalletInput{ID: "BPNL000000000001", Name: " Acme"}, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.shouldErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}
