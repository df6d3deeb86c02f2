package did

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	keyvaultService "github.com/allisson/wallets/internal/keyvault/service"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const (
	testHost     = "localhost:8080"
	testWalletID = "BPNL000000000001"
)

type walletMap map[string]*walletDomain.Wallet

func (m walletMap) Get(_ context.Context, walletID string) (*walletDomain.Wallet, error) {
	wallet, ok := m[walletID]
	if !ok {
		return nil, walletDomain.ErrWalletNotFound
	}
	return wallet, nil
}

type documentFixture struct {
	service *DocumentService
	wallets walletMap
	keys    []*walletDomain.ResolvedKey
}

// newDocumentFixture stores a wallet holding one vault key per fragment.
func newDocumentFixture(t *testing.T, fragments ...string) *documentFixture {
	t.Helper()

	ctx := context.Background()
	vault := keyvaultService.NewVault(keyvaultService.NewMemoryBackend(cryptoDomain.AESGCM))
	factory := keyvaultService.NewKeyFactory()

	wallet := &walletDomain.Wallet{ID: testWalletID, Name: "Acme", CreatedAt: time.Now().UTC()}
	f := &documentFixture{wallets: walletMap{testWalletID: wallet}}
	for _, fragment := range fragments {
		key, err := factory.Generate(fragment)
		require.NoError(t, err)
		stored, err := vault.Store(ctx, testWalletID, key)
		require.NoError(t, err)
		wallet.Keys = append(wallet.Keys, stored)
		f.keys = append(f.keys, key)
	}

	f.service = NewDocumentService(testHost, f.wallets, vault)
	return f
}

func TestDocumentService_CreateDidDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("one method per key", func(t *testing.T) {
		f := newDocumentFixture(t, "key-1", "key-2")

		doc, err := f.service.CreateDidDocument(ctx, testWalletID)
		require.NoError(t, err)

		did := "did:web:localhost%3A8080:BPNL000000000001"
		assert.Equal(t, did, doc.ID)
		assert.Equal(t, []string{ContextDIDV1, ContextJWS2020}, doc.Context)
		require.Len(t, doc.VerificationMethod, 2)

		for i, key := range f.keys {
			method := doc.VerificationMethod[i]
			assert.Equal(t, did+"#"+key.KeyID.String(), method.ID)
			assert.Equal(t, TypeJSONWebKey2020, method.Type)
			assert.Equal(t, did, method.Controller)

			var jwk map[string]any
			require.NoError(t, json.Unmarshal(method.PublicKeyJwk, &jwk))
			assert.Equal(t, key.DidFragment, jwk["kid"])
			assert.Equal(t, "OKP", jwk["kty"])
			assert.Equal(t, "Ed25519", jwk["crv"])
			assert.NotContains(t, jwk, "d")

			publicKey, err := method.PublicKey()
			require.NoError(t, err)
			assert.Equal(t, key.PublicKey, publicKey)
		}

		ids := []string{doc.VerificationMethod[0].ID, doc.VerificationMethod[1].ID}
		assert.Equal(t, ids, doc.AssertionMethod)
		assert.Equal(t, ids, doc.Authentication)
	})

	t.Run("wallet without keys", func(t *testing.T) {
		f := newDocumentFixture(t)

		doc, err := f.service.CreateDidDocument(ctx, testWalletID)
		require.NoError(t, err)

		data, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"verificationMethod":[]`)
	})

	t.Run("key missing in vault", func(t *testing.T) {
		f := newDocumentFixture(t, "key-1")
		f.wallets[testWalletID].Keys = append(f.wallets[testWalletID].Keys, walletDomain.StoredKey{
			KeyID:       uuid.New(),
			DidFragment: "orphan",
		})

		_, err := f.service.CreateDidDocument(ctx, testWalletID)
		assert.ErrorIs(t, err, ErrKeyNotInVault)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.service.CreateDidDocument(ctx, "BPNL0000000000XX")
		assert.ErrorIs(t, err, walletDomain.ErrWalletNotFound)
	})
}

func encodeMultibaseKey(publicKey ed25519.PublicKey) (string, error) {
	data := append(append([]byte{}, ed25519PublicKeyCodec...), publicKey...)
	return multibase.Encode(multibase.Base58BTC, data)
}

func TestVerificationMethod_PublicKey(t *testing.T) {
	t.Run("not a jwk", func(t *testing.T) {
		_, err := VerificationMethod{PublicKeyJwk: json.RawMessage(`"nope"`)}.PublicKey()
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})

	t.Run("multibase", func(t *testing.T) {
		publicKey, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		encoded, err := encodeMultibaseKey(publicKey)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "z6Mk"))

		method := VerificationMethod{Type: TypeEd25519VerificationKey2020, PublicKeyMultibase: encoded}
		decoded, err := method.PublicKey()
		require.NoError(t, err)
		assert.Equal(t, publicKey, decoded)

		data, err := json.Marshal(method)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "publicKeyJwk")
	})

	t.Run("multibase without the ed25519 codec", func(t *testing.T) {
		encoded, err := multibase.Encode(multibase.Base58BTC, make([]byte, 34))
		require.NoError(t, err)
		_, err = VerificationMethod{PublicKeyMultibase: encoded}.PublicKey()
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})

	t.Run("not multibase", func(t *testing.T) {
		_, err := VerificationMethod{PublicKeyMultibase: "!invalid"}.PublicKey()
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})

	t.Run("not an ed25519 key", func(t *testing.T) {
		rsaLike := json.RawMessage(`{"kty":"oct","k":"c2VjcmV0"}`)
		_, err := VerificationMethod{PublicKeyJwk: rsaLike}.PublicKey()
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})
}
