package app

import (
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/allisson/wallets/internal/did"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
	issuanceUseCase "github.com/allisson/wallets/internal/issuance/usecase"
	"github.com/allisson/wallets/internal/proof"
)

type issuanceComponents struct {
	contextCache    *proof.ContextCache
	documentService *did.DocumentService
	didResolver     did.Resolver
	proofEngine     proof.Engine
	issuer          *issuanceService.Issuer
	issuanceBase    issuanceUseCase.IssuanceUseCase
	issuanceUseCase issuanceUseCase.IssuanceUseCase

	contextCacheInit    sync.Once
	documentServiceInit sync.Once
	didResolverInit     sync.Once
	proofEngineInit     sync.Once
	issuerInit          sync.Once
	issuanceBaseInit    sync.Once
	issuanceUseCaseInit sync.Once
}

// ContextCache returns the JSON-LD document loader of the proof engine.
func (c *Container) ContextCache() (*proof.ContextCache, error) {
	var err error
	c.contextCacheInit.Do(func() {
		c.contextCache, err = c.initContextCache()
		if err != nil {
			c.initErrors["contextCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["contextCache"]; exists {
		return nil, storedErr
	}
	return c.contextCache, nil
}

// DocumentService returns the DID document service of hosted wallets.
func (c *Container) DocumentService() (*did.DocumentService, error) {
	var err error
	c.documentServiceInit.Do(func() {
		c.documentService, err = c.initDocumentService()
		if err != nil {
			c.initErrors["documentService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentService"]; exists {
		return nil, storedErr
	}
	return c.documentService, nil
}

// DIDResolver returns the resolver answering hosted DIDs locally and
// foreign did:web DIDs over HTTPS.
func (c *Container) DIDResolver() (did.Resolver, error) {
	var err error
	c.didResolverInit.Do(func() {
		c.didResolver, err = c.initDIDResolver()
		if err != nil {
			c.initErrors["didResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["didResolver"]; exists {
		return nil, storedErr
	}
	return c.didResolver, nil
}

// ProofEngine returns the Ed25519Signature2020 proof engine.
func (c *Container) ProofEngine() (proof.Engine, error) {
	var err error
	c.proofEngineInit.Do(func() {
		c.proofEngine, err = c.initProofEngine()
		if err != nil {
			c.initErrors["proofEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["proofEngine"]; exists {
		return nil, storedErr
	}
	return c.proofEngine, nil
}

// Issuer returns the credential issuer signing as the authority wallet.
func (c *Container) Issuer() (*issuanceService.Issuer, error) {
	var err error
	c.issuerInit.Do(func() {
		c.issuer, err = c.initIssuer()
		if err != nil {
			c.initErrors["issuer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuer"]; exists {
		return nil, storedErr
	}
	return c.issuer, nil
}

// IssuanceUseCase returns the issuance use case. Its writes run the full
// event pipeline.
func (c *Container) IssuanceUseCase() (issuanceUseCase.IssuanceUseCase, error) {
	var err error
	c.issuanceUseCaseInit.Do(func() {
		c.issuanceUseCase, err = c.initIssuanceUseCase()
		if err != nil {
			c.initErrors["issuanceUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceUseCase"]; exists {
		return nil, storedErr
	}
	return c.issuanceUseCase, nil
}

// issuance returns the issuance use case used by listeners, without metrics.
func (c *Container) issuance() (issuanceUseCase.IssuanceUseCase, error) {
	var err error
	c.issuanceBaseInit.Do(func() {
		c.issuanceBase, err = c.initIssuanceBase()
		if err != nil {
			c.initErrors["issuanceBase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceBase"]; exists {
		return nil, storedErr
	}
	return c.issuanceBase, nil
}

// initContextCache creates the document loader. Offline deployments
// preload the vocabulary context under every configured context URL.
func (c *Container) initContextCache() (*proof.ContextCache, error) {
	contexts := proof.NewContextCache(nil)
	if c.config.JSONLDOfflineVocab {
		if err := contexts.PreloadVocab(c.config.AllContexts()...); err != nil {
			return nil, fmt.Errorf("failed to preload json-ld contexts: %w", err)
		}
	}
	return contexts, nil
}

// initDocumentService creates the DID document service.
func (c *Container) initDocumentService() (*did.DocumentService, error) {
	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for document service: %w", err)
	}

	vault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for document service: %w", err)
	}

	return did.NewDocumentService(c.config.DIDHost, walletRepo, vault), nil
}

// initDIDResolver creates the host aware resolver.
func (c *Container) initDIDResolver() (did.Resolver, error) {
	documents, err := c.DocumentService()
	if err != nil {
		return nil, fmt.Errorf("failed to get document service for did resolver: %w", err)
	}

	remote := did.NewWebResolver(resty.New(), did.WebResolverConfig{
		Timeout:   c.config.DIDResolverTimeout,
		CacheSize: c.config.DIDResolverCacheSize,
		CacheTTL:  c.config.DIDResolverCacheTTL,
	}, c.Logger())

	return did.NewHostResolver(c.config.DIDHost, did.NewLocalResolver(documents), remote), nil
}

// initProofEngine creates the proof engine resolving verification methods
// through the DID resolver.
func (c *Container) initProofEngine() (proof.Engine, error) {
	contexts, err := c.ContextCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get context cache for proof engine: %w", err)
	}

	resolver, err := c.DIDResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get did resolver for proof engine: %w", err)
	}

	return proof.NewEd25519Signature2020(contexts, did.NewKeyResolver(resolver)), nil
}

// initIssuer creates the credential issuer.
func (c *Container) initIssuer() (*issuanceService.Issuer, error) {
	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for issuer: %w", err)
	}

	vault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for issuer: %w", err)
	}

	engine, err := c.ProofEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get proof engine for issuer: %w", err)
	}

	return issuanceService.NewIssuer(c.config, walletRepo, vault, engine), nil
}

// initIssuanceBase creates the issuance use case recording holdings through
// the wallet store.
func (c *Container) initIssuanceBase() (issuanceUseCase.IssuanceUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for issuance use case: %w", err)
	}

	issuer, err := c.Issuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer for issuance use case: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for issuance use case: %w", err)
	}

	wallets, err := c.store()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet use case for issuance use case: %w", err)
	}

	return issuanceUseCase.NewIssuanceUseCase(c.config, txManager, issuer, credentialRepo, wallets), nil
}

// initIssuanceUseCase wires the listeners and wraps the base with metrics if enabled.
func (c *Container) initIssuanceUseCase() (issuanceUseCase.IssuanceUseCase, error) {
	if _, err := c.Pipeline(); err != nil {
		return nil, fmt.Errorf("failed to get event pipeline for issuance use case: %w", err)
	}

	baseUseCase, err := c.issuance()
	if err != nil {
		return nil, err
	}

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for issuance use case: %w", err)
		}
		return issuanceUseCase.NewIssuanceUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
