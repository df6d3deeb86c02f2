// Package health implements the readiness self-tests: database reachability,
// custody of the authority signing key and a dry run of the authority's own
// baseline issuance.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/errors"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"

	defaultCheckTimeout = 5 * time.Second
)

// Check is one named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Report is the outcome of all checks.
type Report struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Ready reports whether every check passed.
func (r Report) Ready() bool {
	return r.Status == StatusReady
}

// Checker runs readiness checks.
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker creates a Checker. Each check runs with its own timeout.
func NewChecker(logger *slog.Logger, checks ...Check) *Checker {
	return &Checker{checks: checks, timeout: defaultCheckTimeout, logger: logger}
}

// Check runs every check in order. Failures are logged with their category
// and reported as StatusError; they never abort the remaining checks.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{Status: StatusReady, Components: make(map[string]string, len(c.checks))}

	for _, check := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check.Run(checkCtx)
		cancel()

		if err == nil {
			report.Components[check.Name] = StatusOK
			continue
		}

		report.Status = StatusNotReady
		report.Components[check.Name] = StatusError
		c.logger.Error("readiness check failed",
			slog.String("check", check.Name),
			slog.String("category", category(err)),
			slog.Any("error", err),
		)
	}

	return report
}

func category(err error) string {
	switch {
	case errors.Is(err, errors.ErrCustodyFailure):
		return "custody_failure"
	case errors.Is(err, errors.ErrConfigurationFailure):
		return "configuration_failure"
	default:
		return "unavailable"
	}
}

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseCheck pings the database.
func DatabaseCheck(db Pinger) Check {
	return Check{
		Name: "database",
		Run: func(ctx context.Context) error {
			if db == nil {
				return errors.New("database not configured")
			}
			return db.PingContext(ctx)
		},
	}
}

// WalletReader loads wallets.
type WalletReader interface {
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
}

// KeyResolver resolves stored keys in the vault.
type KeyResolver interface {
	Resolve(
		ctx context.Context,
		walletID string,
		key walletDomain.StoredKey,
	) (resolved *walletDomain.ResolvedKey, found bool, err error)
}

// SigningKeyCheck verifies the authority wallet exists and its signing key
// decrypts from the vault.
func SigningKeyCheck(cfg *config.Config, wallets WalletReader, keys KeyResolver) Check {
	return Check{
		Name: "authority_signing_key",
		Run: func(ctx context.Context) error {
			authority, err := wallets.Get(ctx, cfg.AuthorityWalletID)
			if err != nil {
				if errors.Is(err, walletDomain.ErrWalletNotFound) {
					return errors.Wrap(issuanceDomain.ErrAuthorityWalletNotFound, cfg.AuthorityWalletID)
				}
				return err
			}

			signingKey, ok := authority.SigningKey()
			if !ok {
				return errors.Wrap(walletDomain.ErrNoKeyFound, authority.ID)
			}

			resolved, found, err := keys.Resolve(ctx, authority.ID, signingKey)
			if err != nil {
				return err
			}
			if !found {
				return errors.Wrap(keyvaultDomain.ErrSigningKeyNotInVault, signingKey.KeyID.String())
			}
			resolved.Zero()
			return nil
		},
	}
}

// Issuer signs credentials with the authority key.
type Issuer interface {
	Issue(ctx context.Context, req issuanceService.Request) (*credentialDomain.VerifiableCredential, error)
	HolderDID(walletID string) string
}

// Verifier checks a credential's JSON-LD, proof and expiry.
type Verifier interface {
	Verify(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
}

// SelfIssueCheck issues the authority wallet's own business partner
// credential without persisting it and verifies the result.
func SelfIssueCheck(cfg *config.Config, issuer Issuer, verifier Verifier) Check {
	return Check{
		Name: "self_issuance",
		Run: func(ctx context.Context) error {
			subject, err := issuanceDomain.EncodeSubject(issuanceDomain.BusinessPartnerSubject{
				Type: credentialDomain.TypeBpnCredential,
				ID:   issuer.HolderDID(cfg.AuthorityWalletID),
				BPN:  cfg.AuthorityWalletID,
			})
			if err != nil {
				return err
			}

			vc, err := issuer.Issue(ctx, issuanceService.Request{
				Type:    credentialDomain.TypeBpnCredential,
				Subject: subject,
			})
			if err != nil {
				return err
			}
			if err := verifier.Verify(ctx, vc); err != nil {
				return fmt.Errorf("%w: self-issued credential rejected: %w", errors.ErrCustodyFailure, err)
			}
			return nil
		},
	}
}
