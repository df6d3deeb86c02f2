package service

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	cryptoService "github.com/allisson/wallets/internal/crypto/service"
	"github.com/allisson/wallets/internal/errors"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
)

// KMSBackend stores custody keys wrapped by an external KMS key. Only the
// wrapped form is persisted; unwrapping happens per call.
type KMSBackend struct {
	keeper    cryptoDomain.KMSKeeper
	repo      CustodyKeyRepository
	algorithm cryptoDomain.Algorithm
}

// NewKMSBackend creates a KMSBackend.
func NewKMSBackend(
	keeper cryptoDomain.KMSKeeper,
	repo CustodyKeyRepository,
	alg cryptoDomain.Algorithm,
) *KMSBackend {
	return &KMSBackend{keeper: keeper, repo: repo, algorithm: alg}
}

// Get implements CustodyBackend.
func (b *KMSBackend) Get(
	ctx context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	key, err := b.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plaintext, err := b.keeper.Decrypt(ctx, key.EncryptedKey)
	if err != nil {
		return nil, errors.Wrap(keyvaultDomain.ErrCustodyKeyUnusable, "failed to unwrap custody key: "+err.Error())
	}
	key.Key = plaintext
	return key, nil
}

// GetOrCreate implements CustodyBackend. Losing an insert race is fine: the
// key is re-read after the insert attempt.
func (b *KMSBackend) GetOrCreate(
	ctx context.Context,
	id keyvaultDomain.VaultIdentifier,
) (*keyvaultDomain.CustodyKey, error) {
	key, err := b.Get(ctx, id)
	if err == nil || !errors.Is(err, keyvaultDomain.ErrCustodyKeyNotFound) {
		return key, err
	}

	secret, err := cryptoService.NewKey()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	wrapped, err := b.keeper.Encrypt(ctx, secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wrap custody key")
	}

	err = b.repo.CreateIfAbsent(ctx, &keyvaultDomain.CustodyKey{
		ID:           id,
		Algorithm:    b.algorithm,
		EncryptedKey: wrapped,
		CanEncrypt:   true,
		CanDecrypt:   true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return b.Get(ctx, id)
}
