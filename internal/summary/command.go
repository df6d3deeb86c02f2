// Package summary keeps the summary credential of every wallet in line with
// the framework credentials the wallet holds.
//
// A recompute drops the summary credentials the wallet holds, lists the
// configured framework types it still holds and issues a new summary
// credential expiring with the earliest of them. Event driven recomputes
// run inside the write that changed the holdings; the Sweeper reruns the
// command for every wallet on a schedule.
package summary

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const tracerName = "github.com/allisson/wallets/internal/summary"

// WalletLocker locks a wallet row for the rest of the transaction.
type WalletLocker interface {
	GetForUpdate(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
}

// CredentialRepository lists and stores credential documents.
type CredentialRepository interface {
	List(
		ctx context.Context,
		q credentialDomain.CredentialQuery,
	) ([]*credentialDomain.VerifiableCredential, error)
	Create(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
}

// HoldingStore records which credentials a wallet holds.
type HoldingStore interface {
	StoreCredential(ctx context.Context, walletID, credentialID string) error
	RemoveCredential(ctx context.Context, walletID, credentialID string) error
}

// CredentialIssuer signs credentials as the authority wallet.
type CredentialIssuer interface {
	Issue(ctx context.Context, req issuanceService.Request) (*credentialDomain.VerifiableCredential, error)
	HolderDID(walletID string) string
}

// Recomputer rebuilds the summary credential of a wallet.
type Recomputer interface {
	Recompute(ctx context.Context, walletID string) (*credentialDomain.VerifiableCredential, error)
}

// Command implements Recomputer.
type Command struct {
	cfg            *config.Config
	txManager      database.TxManager
	walletLocker   WalletLocker
	credentialRepo CredentialRepository
	holdings       HoldingStore
	issuer         CredentialIssuer
	tracer         trace.Tracer
	now            func() time.Time
}

// NewCommand creates a Command.
func NewCommand(
	cfg *config.Config,
	txManager database.TxManager,
	walletLocker WalletLocker,
	credentialRepo CredentialRepository,
	holdings HoldingStore,
	issuer CredentialIssuer,
) *Command {
	return &Command{
		cfg:            cfg,
		txManager:      txManager,
		walletLocker:   walletLocker,
		credentialRepo: credentialRepo,
		holdings:       holdings,
		issuer:         issuer,
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
}

// Recompute replaces the wallet's summary credentials with a freshly issued
// one in a single transaction. Running it twice leaves exactly one summary
// credential held.
func (c *Command) Recompute(
	ctx context.Context,
	walletID string,
) (summary *credentialDomain.VerifiableCredential, err error) {
	ctx, span := c.tracer.Start(ctx, "summary.Recompute", trace.WithAttributes(
		attribute.String("wallet.id", walletID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := c.walletLocker.GetForUpdate(txCtx, walletID); err != nil {
			return err
		}

		if err := c.removeSummaries(txCtx, walletID); err != nil {
			return err
		}

		items, expiration, err := c.aggregate(txCtx, walletID)
		if err != nil {
			return err
		}

		subject, err := issuanceDomain.EncodeSubject(issuanceDomain.SummarySubject{
			Type:             credentialDomain.TypeSummaryCredential,
			ID:               c.issuer.HolderDID(walletID),
			HolderIdentifier: walletID,
			Items:            items,
			ContractTemplate: c.cfg.SummaryContractTemplate,
		})
		if err != nil {
			return err
		}

		vc, err := c.issuer.Issue(txCtx, issuanceService.Request{
			Type:           credentialDomain.TypeSummaryCredential,
			Subject:        subject,
			ExpirationDate: expiration,
		})
		if err != nil {
			return err
		}
		if err := c.credentialRepo.Create(txCtx, vc); err != nil {
			return err
		}
		if err := c.holdings.StoreCredential(txCtx, walletID, vc.ID); err != nil {
			return err
		}

		summary = vc
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.StringSlice("summary.items", itemsOf(summary)))
	return summary, nil
}

// removeSummaries drops every held summary credential. The documents stay stored.
func (c *Command) removeSummaries(ctx context.Context, walletID string) error {
	held, err := c.credentialRepo.List(ctx, credentialDomain.CredentialQuery{
		HolderWalletID: walletID,
		Types:          []string{credentialDomain.TypeSummaryCredential},
	})
	if err != nil {
		return err
	}
	for _, vc := range held {
		if err := c.holdings.RemoveCredential(ctx, walletID, vc.ID); err != nil {
			return err
		}
	}
	return nil
}

// aggregate lists the framework types the wallet holds, in configured
// order, and the earliest expiration among the newest credential of each.
// Without any framework credential the expiration is now.
func (c *Command) aggregate(ctx context.Context, walletID string) ([]string, time.Time, error) {
	items := []string{}
	var expiration time.Time

	for _, credentialType := range c.cfg.FrameworkCredentialTypes {
		if credentialType == credentialDomain.TypeSummaryCredential {
			continue
		}
		newest, err := c.credentialRepo.List(ctx, credentialDomain.CredentialQuery{
			HolderWalletID: walletID,
			Types:          []string{credentialType},
			Limit:          1,
		})
		if err != nil {
			return nil, time.Time{}, err
		}
		if len(newest) == 0 {
			continue
		}

		items = append(items, credentialType)
		if expiration.IsZero() || newest[0].ExpirationDate.Before(expiration) {
			expiration = newest[0].ExpirationDate
		}
	}

	if expiration.IsZero() {
		expiration = c.now().UTC()
	}
	return items, expiration, nil
}

func itemsOf(vc *credentialDomain.VerifiableCredential) []string {
	raw, _ := vc.CredentialSubject["items"].([]string)
	return raw
}
