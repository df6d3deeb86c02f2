package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	"github.com/allisson/wallets/internal/metrics"
)

// issuanceUseCaseWithMetrics decorates IssuanceUseCase with metrics instrumentation.
type issuanceUseCaseWithMetrics struct {
	next    IssuanceUseCase
	metrics metrics.BusinessMetrics
}

// NewIssuanceUseCaseWithMetrics wraps an IssuanceUseCase with metrics recording.
func NewIssuanceUseCaseWithMetrics(useCase IssuanceUseCase, m metrics.BusinessMetrics) IssuanceUseCase {
	return &issuanceUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (i *issuanceUseCaseWithMetrics) observe(
	ctx context.Context,
	operation string,
	fn func() (*credentialDomain.VerifiableCredential, error),
) (*credentialDomain.VerifiableCredential, error) {
	start := time.Now()
	vc, err := fn()
	metrics.Observe(ctx, i.metrics, metrics.DomainIssuance, operation, start, err)
	return vc, err
}

func (i *issuanceUseCaseWithMetrics) IssueBusinessPartner(
	ctx context.Context,
	holderWalletID string,
) (*credentialDomain.VerifiableCredential, error) {
	return i.observe(ctx, "issue_business_partner", func() (*credentialDomain.VerifiableCredential, error) {
		return i.next.IssueBusinessPartner(ctx, holderWalletID)
	})
}

func (i *issuanceUseCaseWithMetrics) IssueMembership(
	ctx context.Context,
	req issuanceDomain.MembershipRequest,
) (*credentialDomain.VerifiableCredential, error) {
	return i.observe(ctx, "issue_membership", func() (*credentialDomain.VerifiableCredential, error) {
		return i.next.IssueMembership(ctx, req)
	})
}

func (i *issuanceUseCaseWithMetrics) IssueDismantler(
	ctx context.Context,
	req issuanceDomain.DismantlerRequest,
) (*credentialDomain.VerifiableCredential, error) {
	return i.observe(ctx, "issue_dismantler", func() (*credentialDomain.VerifiableCredential, error) {
		return i.next.IssueDismantler(ctx, req)
	})
}

func (i *issuanceUseCaseWithMetrics) IssueFramework(
	ctx context.Context,
	req issuanceDomain.FrameworkRequest,
) (*credentialDomain.VerifiableCredential, error) {
	return i.observe(ctx, "issue_framework", func() (*credentialDomain.VerifiableCredential, error) {
		return i.next.IssueFramework(ctx, req)
	})
}
