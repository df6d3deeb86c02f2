// Package service implements the credential factory: the issuance protocol
// shared by every credential type, signed by the authority wallet.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/did"
	"github.com/allisson/wallets/internal/errors"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	keyvaultDomain "github.com/allisson/wallets/internal/keyvault/domain"
	"github.com/allisson/wallets/internal/proof"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

const tracerName = "github.com/allisson/wallets/internal/issuance"

// Request describes a credential to issue. A zero ExpirationDate selects
// the configured default horizon.
type Request struct {
	Type           string
	Subject        map[string]any
	ExpirationDate time.Time
}

// WalletReader loads wallets.
type WalletReader interface {
	Get(ctx context.Context, walletID string) (*walletDomain.Wallet, error)
}

// KeyResolver decrypts stored key pairs.
type KeyResolver interface {
	Resolve(
		ctx context.Context,
		walletID string,
		key walletDomain.StoredKey,
	) (resolved *walletDomain.ResolvedKey, found bool, err error)
}

// Issuer builds and signs credentials on behalf of the authority wallet.
type Issuer struct {
	cfg     *config.Config
	wallets WalletReader
	keys    KeyResolver
	engine  proof.Engine
	tracer  trace.Tracer
	now     func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(cfg *config.Config, wallets WalletReader, keys KeyResolver, engine proof.Engine) *Issuer {
	return &Issuer{
		cfg:     cfg,
		wallets: wallets,
		keys:    keys,
		engine:  engine,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// IssuerDID returns the DID of the authority wallet.
func (i *Issuer) IssuerDID() string {
	return did.FromWalletID(i.cfg.DIDHost, i.cfg.AuthorityWalletID)
}

// HolderDID returns the DID of a hosted wallet.
func (i *Issuer) HolderDID(walletID string) string {
	return did.FromWalletID(i.cfg.DIDHost, walletID)
}

// Issue builds a credential of req.Type and signs it with the authority
// wallet's current signing key.
func (i *Issuer) Issue(ctx context.Context, req Request) (vc *credentialDomain.VerifiableCredential, err error) {
	ctx, span := i.tracer.Start(ctx, "issuance.Issue", trace.WithAttributes(
		attribute.String("credential.type", req.Type),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	authority, err := i.wallets.Get(ctx, i.cfg.AuthorityWalletID)
	if err != nil {
		if errors.Is(err, walletDomain.ErrWalletNotFound) {
			return nil, errors.Wrap(issuanceDomain.ErrAuthorityWalletNotFound, i.cfg.AuthorityWalletID)
		}
		return nil, err
	}

	issuerDID := i.IssuerDID()
	now := i.now().UTC().Truncate(time.Second)
	expiration := req.ExpirationDate
	if expiration.IsZero() {
		expiration = now.Add(i.cfg.CredentialExpiryHorizon)
	}

	vc = &credentialDomain.VerifiableCredential{
		Context:           i.contexts(req.Type),
		ID:                issuerDID + "#" + uuid.NewString(),
		Type:              []string{credentialDomain.TypeVerifiableCredential, req.Type},
		Issuer:            issuerDID,
		IssuanceDate:      now,
		ExpirationDate:    expiration.UTC().Truncate(time.Second),
		CredentialSubject: req.Subject,
	}

	signingKey, ok := authority.SigningKey()
	if !ok {
		return nil, errors.Wrap(walletDomain.ErrNoKeyFound, authority.ID)
	}

	resolved, found, err := i.keys.Resolve(ctx, authority.ID, signingKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrap(keyvaultDomain.ErrSigningKeyNotInVault, signingKey.KeyID.String())
	}
	defer resolved.Zero()

	verificationMethod := did.VerificationMethodID(issuerDID, signingKey.KeyID.String())
	p, err := i.engine.CreateProof(ctx, vc, verificationMethod, resolved.PrivateKey)
	if err != nil {
		return nil, err
	}
	vc.Proof = p

	span.SetAttributes(attribute.String("credential.id", vc.ID))
	return vc, nil
}

// contexts returns the configured contexts of credentialType with the proof
// suite context appended once.
func (i *Issuer) contexts(credentialType string) []string {
	contexts := i.cfg.ContextsFor(credentialType)
	for _, uri := range contexts {
		if uri == i.cfg.ProofSuiteContext {
			return contexts
		}
	}
	return append(contexts, i.cfg.ProofSuiteContext)
}
