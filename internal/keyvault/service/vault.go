package service

import (
	"context"
	"crypto/ed25519"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	cryptoService "github.com/allisson/wallets/internal/crypto/service"
	"github.com/allisson/wallets/internal/errors"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const (
	publicField  = "public"
	privateField = "private"
)

// Vault implements KeyVault on top of a CustodyBackend. Each half of a key
// pair is sealed separately and bound to its vault identifier and field.
type Vault struct {
	backend CustodyBackend
}

// NewVault creates a Vault.
func NewVault(backend CustodyBackend) *Vault {
	return &Vault{backend: backend}
}

// Store implements KeyVault.
func (v *Vault) Store(
	ctx context.Context,
	walletID string,
	key *walletDomain.ResolvedKey,
) (walletDomain.StoredKey, error) {
	id := keyvaultDomain.NewVaultIdentifier(walletID, key.KeyID)

	custodyKey, err := v.backend.GetOrCreate(ctx, id)
	if err != nil {
		return walletDomain.StoredKey{}, err
	}
	c, err := cipherFor(custodyKey)
	if err != nil {
		return walletDomain.StoredKey{}, err
	}

	encryptedPublic, err := c.Seal(key.PublicKey, associatedData(id, publicField))
	if err != nil {
		return walletDomain.StoredKey{}, errors.Wrap(err, "failed to encrypt public key")
	}
	encryptedPrivate, err := c.Seal(key.PrivateKey, associatedData(id, privateField))
	if err != nil {
		return walletDomain.StoredKey{}, errors.Wrap(err, "failed to encrypt private key")
	}

	return walletDomain.StoredKey{
		KeyID:               key.KeyID,
		DidFragment:         key.DidFragment,
		CreatedAt:           key.CreatedAt,
		EncryptedPublicKey:  encryptedPublic,
		EncryptedPrivateKey: encryptedPrivate,
	}, nil
}

// Resolve implements KeyVault.
func (v *Vault) Resolve(
	ctx context.Context,
	walletID string,
	key walletDomain.StoredKey,
) (*walletDomain.ResolvedKey, bool, error) {
	id := keyvaultDomain.NewVaultIdentifier(walletID, key.KeyID)

	c, found, err := v.lookup(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	publicKey, err := openPublic(c, id, key)
	if err != nil {
		return nil, false, err
	}
	privateKey, err := c.Open(key.EncryptedPrivateKey, associatedData(id, privateField))
	if err != nil || len(privateKey) != ed25519.PrivateKeySize {
		return nil, false, keyvaultDomain.ErrKeyMaterialCorrupt
	}

	return &walletDomain.ResolvedKey{
		KeyID:       key.KeyID,
		DidFragment: key.DidFragment,
		CreatedAt:   key.CreatedAt,
		PublicKey:   publicKey,
		PrivateKey:  ed25519.PrivateKey(privateKey),
	}, true, nil
}

// ResolvePublic implements KeyVault.
func (v *Vault) ResolvePublic(
	ctx context.Context,
	walletID string,
	key walletDomain.StoredKey,
) (ed25519.PublicKey, bool, error) {
	id := keyvaultDomain.NewVaultIdentifier(walletID, key.KeyID)

	c, found, err := v.lookup(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	publicKey, err := openPublic(c, id, key)
	if err != nil {
		return nil, false, err
	}
	return publicKey, true, nil
}

func (v *Vault) lookup(ctx context.Context, id keyvaultDomain.VaultIdentifier) (*cryptoService.Cipher, bool, error) {
	custodyKey, err := v.backend.Get(ctx, id)
	if errors.Is(err, keyvaultDomain.ErrCustodyKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c, err := cipherFor(custodyKey)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func openPublic(
	c *cryptoService.Cipher,
	id keyvaultDomain.VaultIdentifier,
	key walletDomain.StoredKey,
) (ed25519.PublicKey, error) {
	publicKey, err := c.Open(key.EncryptedPublicKey, associatedData(id, publicField))
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return nil, keyvaultDomain.ErrKeyMaterialCorrupt
	}
	return ed25519.PublicKey(publicKey), nil
}

func cipherFor(custodyKey *keyvaultDomain.CustodyKey) (*cryptoService.Cipher, error) {
	if err := custodyKey.Validate(); err != nil {
		return nil, err
	}
	c, err := cryptoService.NewCipher(custodyKey.Key, custodyKey.Algorithm)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrInvalidKeySize) || errors.Is(err, cryptoDomain.ErrUnsupportedAlgorithm) {
			return nil, errors.Wrap(keyvaultDomain.ErrCustodyKeyUnusable, err.Error())
		}
		return nil, err
	}
	return c, nil
}

func associatedData(id keyvaultDomain.VaultIdentifier, field string) []byte {
	return []byte(id.String() + ":" + field)
}
