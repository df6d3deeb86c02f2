// Package usecase exposes stored credentials and verifies credentials
// against their JSON-LD contexts, their proof and their expiry.
package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/proof"
)

// CredentialRepository reads credential documents.
type CredentialRepository interface {
	Get(ctx context.Context, credentialID string) (*credentialDomain.VerifiableCredential, error)
	List(
		ctx context.Context,
		q credentialDomain.CredentialQuery,
	) ([]*credentialDomain.VerifiableCredential, error)
	Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error)
}

// CredentialUseCase defines credential queries and verification.
type CredentialUseCase interface {
	Get(ctx context.Context, credentialID string) (*credentialDomain.VerifiableCredential, error)
	List(
		ctx context.Context,
		q credentialDomain.CredentialQuery,
	) ([]*credentialDomain.VerifiableCredential, error)
	Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error)
	// Verify checks the credential is valid JSON-LD, carries a proof that
	// verifies and has not expired. Every failure is a validation failure.
	Verify(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
}

type credentialUseCase struct {
	credentialRepo CredentialRepository
	engine         proof.Engine
	now            func() time.Time
}

// NewCredentialUseCase creates a CredentialUseCase.
func NewCredentialUseCase(credentialRepo CredentialRepository, engine proof.Engine) CredentialUseCase {
	return &credentialUseCase{
		credentialRepo: credentialRepo,
		engine:         engine,
		now:            time.Now,
	}
}

func (c *credentialUseCase) Get(
	ctx context.Context,
	credentialID string,
) (*credentialDomain.VerifiableCredential, error) {
	return c.credentialRepo.Get(ctx, credentialID)
}

func (c *credentialUseCase) List(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) ([]*credentialDomain.VerifiableCredential, error) {
	return c.credentialRepo.List(ctx, q)
}

func (c *credentialUseCase) Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error) {
	return c.credentialRepo.Count(ctx, q)
}

func (c *credentialUseCase) Verify(ctx context.Context, vc *credentialDomain.VerifiableCredential) error {
	if vc == nil {
		return credentialDomain.ErrInvalidCredential
	}
	if err := c.engine.ValidateJSONLD(ctx, vc); err != nil {
		return err
	}
	if err := c.engine.VerifyProof(ctx, vc); err != nil {
		return err
	}
	if vc.IsExpired(c.now()) {
		return errors.Wrap(credentialDomain.ErrCredentialExpired, vc.ExpirationDate.Format(time.RFC3339))
	}
	return nil
}
