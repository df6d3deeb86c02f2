package did

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/multiformats/go-multibase"

	"github.com/allisson/wallets/internal/errors"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// Document contexts and verification method types. Hosted documents publish
// JsonWebKey2020 methods; Ed25519VerificationKey2020 methods are accepted in
// resolved documents.
const (
	ContextDIDV1                   = "https://www.w3.org/ns/did/v1"
	ContextJWS2020                 = "https://w3c.github.io/vc-jws-2020/contexts/v1"
	TypeJSONWebKey2020             = "JsonWebKey2020"
	TypeEd25519VerificationKey2020 = "Ed25519VerificationKey2020"
)

// ed25519PublicKeyCodec is the multicodec prefix of an Ed25519 public key.
var ed25519PublicKeyCodec = []byte{0xed, 0x01}

// Document is a W3C DID document.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	AssertionMethod    []string             `json:"assertionMethod"`
	Authentication     []string             `json:"authentication"`
}

// VerificationMethod is a public key published in a DID document.
type VerificationMethod struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Controller         string          `json:"controller"`
	PublicKeyJwk       json.RawMessage `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string          `json:"publicKeyMultibase,omitempty"`
}

// Method returns the verification method with id.
func (d *Document) Method(id string) (VerificationMethod, bool) {
	for _, method := range d.VerificationMethod {
		if method.ID == id {
			return method, true
		}
	}
	return VerificationMethod{}, false
}

// CanAssert reports whether the method is listed under assertionMethod.
func (d *Document) CanAssert(id string) bool {
	for _, ref := range d.AssertionMethod {
		if ref == id {
			return true
		}
	}
	return false
}

// PublicKey decodes the method's Ed25519 public key from its multibase form
// when present, otherwise from its JWK.
func (m VerificationMethod) PublicKey() (ed25519.PublicKey, error) {
	if m.PublicKeyMultibase != "" {
		return decodeMultibaseKey(m.PublicKeyMultibase)
	}

	key, err := jwk.ParseKey(m.PublicKeyJwk)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPublicKey, err.Error())
	}

	var publicKey ed25519.PublicKey
	if err := key.Raw(&publicKey); err != nil {
		return nil, errors.Wrap(ErrInvalidPublicKey, err.Error())
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return publicKey, nil
}

// WalletReader loads wallets.
type WalletReader interface {
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
}

// PublicKeyResolver decrypts the public half of stored keys.
type PublicKeyResolver interface {
	ResolvePublic(
		ctx context.Context,
		walletID string,
		key walletDomain.StoredKey,
	) (publicKey ed25519.PublicKey, found bool, err error)
}

// DocumentService assembles the DID documents of the wallets it hosts.
type DocumentService struct {
	host    string
	wallets WalletReader
	vault   PublicKeyResolver
}

// NewDocumentService creates a DocumentService for wallets hosted on host.
func NewDocumentService(host string, wallets WalletReader, vault PublicKeyResolver) *DocumentService {
	return &DocumentService{host: host, wallets: wallets, vault: vault}
}

// Host returns the did:web host of the hosted wallets.
func (s *DocumentService) Host() string {
	return s.host
}

// DID returns the DID of a hosted wallet.
func (s *DocumentService) DID(walletID string) string {
	return FromWalletID(s.host, walletID)
}

// CreateDidDocument builds the document of a wallet from its current keys.
// Each key becomes a JsonWebKey2020 method with id <did>#<keyId> whose JWK
// kid is the key's DID fragment. Every method may assert and authenticate.
func (s *DocumentService) CreateDidDocument(ctx context.Context, walletID string) (*Document, error) {
	wallet, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}

	did := s.DID(wallet.ID)
	doc := &Document{
		Context:            []string{ContextDIDV1, ContextJWS2020},
		ID:                 did,
		VerificationMethod: make([]VerificationMethod, 0, len(wallet.Keys)),
		AssertionMethod:    make([]string, 0, len(wallet.Keys)),
		Authentication:     make([]string, 0, len(wallet.Keys)),
	}

	for _, key := range wallet.Keys {
		publicKey, found, err := s.vault.ResolvePublic(ctx, wallet.ID, key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Wrap(ErrKeyNotInVault, key.KeyID.String())
		}

		jwkJSON, err := publicJWK(publicKey, key.DidFragment)
		if err != nil {
			return nil, err
		}

		id := VerificationMethodID(did, key.KeyID.String())
		doc.VerificationMethod = append(doc.VerificationMethod, VerificationMethod{
			ID:           id,
			Type:         TypeJSONWebKey2020,
			Controller:   did,
			PublicKeyJwk: jwkJSON,
		})
		doc.AssertionMethod = append(doc.AssertionMethod, id)
		doc.Authentication = append(doc.Authentication, id)
	}

	return doc, nil
}

func decodeMultibaseKey(value string) (ed25519.PublicKey, error) {
	encoding, data, err := multibase.Decode(value)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPublicKey, err.Error())
	}
	if encoding != multibase.Base58BTC || !bytes.HasPrefix(data, ed25519PublicKeyCodec) ||
		len(data) != len(ed25519PublicKeyCodec)+ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return ed25519.PublicKey(data[len(ed25519PublicKeyCodec):]), nil
}

func publicJWK(publicKey ed25519.PublicKey, kid string) (json.RawMessage, error) {
	key, err := jwk.FromRaw(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build jwk: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, fmt.Errorf("failed to set jwk kid: %w", err)
	}
	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jwk: %w", err)
	}
	return data, nil
}
