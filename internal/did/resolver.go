package did

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/go-resty/resty/v2"

	"github.com/allisson/wallets/internal/errors"
)

// Resolver resolves a DID to its document.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*Document, error)
}

// LocalResolver resolves the DIDs of wallets hosted by this service
// without a network round trip.
type LocalResolver struct {
	documents *DocumentService
}

// NewLocalResolver creates a LocalResolver.
func NewLocalResolver(documents *DocumentService) *LocalResolver {
	return &LocalResolver{documents: documents}
}

// Resolve implements Resolver.
func (r *LocalResolver) Resolve(ctx context.Context, did string) (*Document, error) {
	walletID, err := WalletIDFromDID(r.documents.Host(), did)
	if err != nil {
		return nil, err
	}
	return r.documents.CreateDidDocument(ctx, walletID)
}

// WebResolver fetches did:web documents over HTTP(S) and caches them.
type WebResolver struct {
	client  *resty.Client
	cache   gcache.Cache
	useHTTP bool
	logger  *slog.Logger
}

// WebResolverConfig configures a WebResolver.
type WebResolverConfig struct {
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
	UseHTTP   bool
}

// NewWebResolver creates a WebResolver. A nil client gets a default one.
func NewWebResolver(client *resty.Client, cfg WebResolverConfig, logger *slog.Logger) *WebResolver {
	if client == nil {
		client = resty.New()
	}
	client.SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/did+json, application/json")

	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}

	builder := gcache.New(size).LRU()
	if cfg.CacheTTL > 0 {
		builder = builder.Expiration(cfg.CacheTTL)
	}

	return &WebResolver{
		client:  client,
		cache:   builder.Build(),
		useHTTP: cfg.UseHTTP,
		logger:  logger,
	}
}

// Client returns the underlying HTTP client.
func (r *WebResolver) Client() *resty.Client {
	return r.client
}

// Resolve implements Resolver.
func (r *WebResolver) Resolve(ctx context.Context, did string) (*Document, error) {
	if cached, err := r.cache.Get(did); err == nil {
		return cached.(*Document), nil
	}

	address, err := WebURL(did, r.useHTTP)
	if err != nil {
		return nil, err
	}

	var doc Document
	resp, err := r.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&doc).
		Get(address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch did document %s: %w", address, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Wrap(ErrDocumentNotFound, did)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch did document %s: status %d", address, resp.StatusCode())
	}
	if doc.ID != did {
		return nil, errors.Wrap(ErrDocumentNotFound, fmt.Sprintf("document at %s describes %q", address, doc.ID))
	}

	if err := r.cache.Set(did, &doc); err != nil {
		r.logger.Warn("failed to cache did document", slog.String("did", did), slog.Any("error", err))
	}
	return &doc, nil
}

// HostResolver resolves DIDs of the local host locally and everything else
// through the remote resolver.
type HostResolver struct {
	host   string
	local  Resolver
	remote Resolver
}

// NewHostResolver creates a HostResolver.
func NewHostResolver(host string, local, remote Resolver) *HostResolver {
	return &HostResolver{host: host, local: local, remote: remote}
}

// Resolve implements Resolver.
func (r *HostResolver) Resolve(ctx context.Context, did string) (*Document, error) {
	parts, err := components(did)
	if err != nil {
		return nil, err
	}
	if parts[0] == r.host {
		return r.local.Resolve(ctx, did)
	}
	if r.remote == nil {
		return nil, errors.Wrap(ErrForeignHost, parts[0])
	}
	return r.remote.Resolve(ctx, did)
}

// KeyResolver resolves verification methods to Ed25519 public keys.
type KeyResolver struct {
	resolver Resolver
}

// NewKeyResolver creates a KeyResolver.
func NewKeyResolver(resolver Resolver) *KeyResolver {
	return &KeyResolver{resolver: resolver}
}

// ResolveKey returns the key of a verification method that the DID's
// controller lists under assertionMethod.
func (k *KeyResolver) ResolveKey(ctx context.Context, verificationMethod string) (ed25519.PublicKey, error) {
	did, _, err := SplitVerificationMethod(verificationMethod)
	if err != nil {
		return nil, err
	}

	doc, err := k.resolver.Resolve(ctx, did)
	if err != nil {
		return nil, err
	}

	method, ok := doc.Method(verificationMethod)
	if !ok || !doc.CanAssert(verificationMethod) {
		return nil, errors.Wrap(ErrVerificationMethodNotFound, verificationMethod)
	}
	return method.PublicKey()
}
