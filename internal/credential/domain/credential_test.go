package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifiableCredential(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	vc := &VerifiableCredential{
		Context:        []string{"https://www.w3.org/2018/credentials/v1"},
		ID:             "did:web:localhost:BPNL000000000000#1",
		Type:           []string{TypeVerifiableCredential, TypeBpnCredential},
		Issuer:         "did:web:localhost:BPNL000000000000",
		IssuanceDate:   issued,
		ExpirationDate: issued.Add(24 * time.Hour),
		CredentialSubject: map[string]any{
			"id":  "did:web:localhost:BPNL000000000001",
			"bpn": "BPNL000000000001",
		},
		Proof: &Proof{Type: ProofTypeEd25519Signature2020, ProofValue: "z123"},
	}

	t.Run("types", func(t *testing.T) {
		assert.True(t, vc.HasType(TypeBpnCredential))
		assert.False(t, vc.HasType(TypeSummaryCredential))
		assert.Equal(t, TypeBpnCredential, vc.SpecificType())
	})

	t.Run("expiry", func(t *testing.T) {
		assert.False(t, vc.IsExpired(issued))
		assert.True(t, vc.IsExpired(issued.Add(25*time.Hour)))
	})

	t.Run("unsigned copy leaves the original intact", func(t *testing.T) {
		unsigned := vc.Unsigned()
		assert.Nil(t, unsigned.Proof)
		assert.NotNil(t, vc.Proof)
	})

	t.Run("map form uses JSON-LD member names", func(t *testing.T) {
		doc, err := vc.Unsigned().ToMap()
		require.NoError(t, err)

		assert.Equal(t, []any{"https://www.w3.org/2018/credentials/v1"}, doc["@context"])
		assert.Equal(t, "2026-03-01T10:00:00Z", doc["issuanceDate"])
		assert.NotContains(t, doc, "proof")
	})
}
