package lifecycle

import (
	"context"
	"log/slog"

	"github.com/allisson/wallets/internal/events"
)

// BaselineIssuer issues the business partner credential of a new wallet.
type BaselineIssuer struct {
	issuer BusinessPartnerIssuer
	logger *slog.Logger
}

// NewBaselineIssuer creates a BaselineIssuer.
func NewBaselineIssuer(issuer BusinessPartnerIssuer, logger *slog.Logger) *BaselineIssuer {
	return &BaselineIssuer{issuer: issuer, logger: logger}
}

// Listener subscribes the issuer to WalletCreated after key provisioning.
func (b *BaselineIssuer) Listener() events.Listener {
	return events.Listener{
		Name:     "baseline-issuance",
		Kinds:    []events.Kind{events.WalletCreated},
		Priority: BaselineIssuancePriority,
		Handle:   b.handle,
	}
}

func (b *BaselineIssuer) handle(ctx context.Context, event events.Event) error {
	vc, err := b.issuer.IssueBusinessPartner(ctx, event.WalletID)
	if err != nil {
		return err
	}
	b.logger.Info("baseline credential issued",
		slog.String("wallet_id", event.WalletID),
		slog.String("credential_id", vc.ID),
	)
	return nil
}
