package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	apperrors "github.com/allisson/wallets/internal/errors"

	// KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens the keeper that wraps custody keys at rest.
type KMSService interface {
	// OpenKeeper supports gcpkms://, awskms://, azurekeyvault://, hashivault://
	// and base64key:// URIs.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets. The
// driver is picked from the URI scheme.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	if keyURI == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfigurationFailure, "failed to open KMS keeper: empty key URI")
	}
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
