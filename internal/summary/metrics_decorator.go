package summary

import (
	"context"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/metrics"
)

type recomputerWithMetrics struct {
	next    Recomputer
	metrics metrics.BusinessMetrics
}

// NewRecomputerWithMetrics wraps a Recomputer with metrics recording.
func NewRecomputerWithMetrics(recomputer Recomputer, m metrics.BusinessMetrics) Recomputer {
	return &recomputerWithMetrics{next: recomputer, metrics: m}
}

func (r *recomputerWithMetrics) Recompute(
	ctx context.Context,
	walletID string,
) (*credentialDomain.VerifiableCredential, error) {
	start := time.Now()
	vc, err := r.next.Recompute(ctx, walletID)
	metrics.Observe(ctx, r.metrics, metrics.DomainSummary, "recompute", start, err)
	return vc, err
}
