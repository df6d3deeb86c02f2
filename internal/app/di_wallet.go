package app

import (
	"context"
	"fmt"
	"sync"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	credentialRepository "github.com/allisson/wallets/internal/credential/repository"
	credentialUseCase "github.com/allisson/wallets/internal/credential/usecase"
	"github.com/allisson/wallets/internal/events"
	"github.com/allisson/wallets/internal/lifecycle"
	outboxUseCase "github.com/allisson/wallets/internal/outbox/usecase"
	"github.com/allisson/wallets/internal/summary"
	walletRepository "github.com/allisson/wallets/internal/wallet/repository"
	walletUseCase "github.com/allisson/wallets/internal/wallet/usecase"
)

// CredentialStore is the credential persistence shared by issuance, queries
// and the summary command.
type CredentialStore interface {
	Create(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
	Get(ctx context.Context, credentialID string) (*credentialDomain.VerifiableCredential, error)
	List(
		ctx context.Context,
		q credentialDomain.CredentialQuery,
	) ([]*credentialDomain.VerifiableCredential, error)
	Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error)
}

type walletComponents struct {
	walletRepository     walletUseCase.WalletRepository
	credentialRepository CredentialStore
	eventPipeline        *events.Pipeline
	walletStore          walletUseCase.WalletUseCase
	walletUseCase        walletUseCase.WalletUseCase
	credentialUseCase    credentialUseCase.CredentialUseCase
	keyProvisioner       *lifecycle.KeyProvisioner
	bootstrap            *lifecycle.Bootstrap

	walletRepositoryInit     sync.Once
	credentialRepositoryInit sync.Once
	eventPipelineInit        sync.Once
	listenersInit            sync.Once
	walletStoreInit          sync.Once
	walletUseCaseInit        sync.Once
	credentialUseCaseInit    sync.Once
	keyProvisionerInit       sync.Once
	bootstrapInit            sync.Once
}

// WalletRepository returns the wallet repository based on database driver.
func (c *Container) WalletRepository() (walletUseCase.WalletRepository, error) {
	var err error
	c.walletRepositoryInit.Do(func() {
		c.walletRepository, err = c.initWalletRepository()
		if err != nil {
			c.initErrors["walletRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletRepository"]; exists {
		return nil, storedErr
	}
	return c.walletRepository, nil
}

// CredentialRepository returns the credential repository based on database driver.
func (c *Container) CredentialRepository() (CredentialStore, error) {
	var err error
	c.credentialRepositoryInit.Do(func() {
		c.credentialRepository, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepository"]; exists {
		return nil, storedErr
	}
	return c.credentialRepository, nil
}

// Pipeline returns the event pipeline with every listener registered:
// the wallet creation listeners, the summary filter and the outbox recorder.
func (c *Container) Pipeline() (*events.Pipeline, error) {
	var err error
	c.listenersInit.Do(func() {
		err = c.registerListeners()
		if err != nil {
			c.initErrors["listeners"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["listeners"]; exists {
		return nil, storedErr
	}
	return c.pipeline(), nil
}

// WalletUseCase returns the wallet use case. Its writes run the full event
// pipeline.
func (c *Container) WalletUseCase() (walletUseCase.WalletUseCase, error) {
	var err error
	c.walletUseCaseInit.Do(func() {
		c.walletUseCase, err = c.initWalletUseCase()
		if err != nil {
			c.initErrors["walletUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletUseCase"]; exists {
		return nil, storedErr
	}
	return c.walletUseCase, nil
}

// CredentialUseCase returns the credential query and verification use case.
func (c *Container) CredentialUseCase() (credentialUseCase.CredentialUseCase, error) {
	var err error
	c.credentialUseCaseInit.Do(func() {
		c.credentialUseCase, err = c.initCredentialUseCase()
		if err != nil {
			c.initErrors["credentialUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialUseCase"]; exists {
		return nil, storedErr
	}
	return c.credentialUseCase, nil
}

// KeyProvisioner returns the listener giving new wallets their signing key.
func (c *Container) KeyProvisioner() (*lifecycle.KeyProvisioner, error) {
	var err error
	c.keyProvisionerInit.Do(func() {
		c.keyProvisioner, err = c.initKeyProvisioner()
		if err != nil {
			c.initErrors["keyProvisioner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyProvisioner"]; exists {
		return nil, storedErr
	}
	return c.keyProvisioner, nil
}

// Bootstrap returns the authority wallet bootstrap.
func (c *Container) Bootstrap() (*lifecycle.Bootstrap, error) {
	var err error
	c.bootstrapInit.Do(func() {
		c.bootstrap, err = c.initBootstrap()
		if err != nil {
			c.initErrors["bootstrap"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["bootstrap"]; exists {
		return nil, storedErr
	}
	return c.bootstrap, nil
}

// pipeline returns the pipeline without registering listeners. Listener
// components publish through it before they are registered themselves.
func (c *Container) pipeline() *events.Pipeline {
	c.eventPipelineInit.Do(func() {
		c.eventPipeline = events.NewPipeline(c.Logger())
	})
	return c.eventPipeline
}

// store returns the wallet use case used by listeners, without metrics.
func (c *Container) store() (walletUseCase.WalletUseCase, error) {
	var err error
	c.walletStoreInit.Do(func() {
		c.walletStore, err = c.initWalletStore()
		if err != nil {
			c.initErrors["walletStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletStore"]; exists {
		return nil, storedErr
	}
	return c.walletStore, nil
}

// initWalletRepository creates the wallet repository instance.
func (c *Container) initWalletRepository() (walletUseCase.WalletRepository, error) {
	if c.InMemory() {
		txManager, err := c.memoryTxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for wallet repository: %w", err)
		}
		return walletRepository.NewMemoryWalletRepository(txManager), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for wallet repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return walletRepository.NewPostgreSQLWalletRepository(db), nil
	case "mysql":
		return walletRepository.NewMySQLWalletRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCredentialRepository creates the credential repository instance. The
// memory repository answers holder filters from the memory wallet repository.
func (c *Container) initCredentialRepository() (CredentialStore, error) {
	if c.InMemory() {
		txManager, err := c.memoryTxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for credential repository: %w", err)
		}
		walletRepo, err := c.WalletRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet repository for credential repository: %w", err)
		}
		holdings, ok := walletRepo.(credentialRepository.HoldingIndex)
		if !ok {
			return nil, fmt.Errorf("wallet repository does not index holdings")
		}
		return credentialRepository.NewMemoryCredentialRepository(txManager, holdings), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return credentialRepository.NewPostgreSQLCredentialRepository(db), nil
	case "mysql":
		return credentialRepository.NewMySQLCredentialRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// registerListeners registers the listeners of every event kind.
func (c *Container) registerListeners() error {
	pipeline := c.pipeline()
	logger := c.Logger()

	provisioner, err := c.KeyProvisioner()
	if err != nil {
		return fmt.Errorf("failed to get key provisioner for event pipeline: %w", err)
	}

	issuance, err := c.issuance()
	if err != nil {
		return fmt.Errorf("failed to get issuance use case for event pipeline: %w", err)
	}

	recomputer, err := c.Recomputer()
	if err != nil {
		return fmt.Errorf("failed to get summary recomputer for event pipeline: %w", err)
	}

	pipeline.Register(lifecycle.Listeners(provisioner, lifecycle.NewBaselineIssuer(issuance, logger))...)
	pipeline.Register(summary.NewFilter(c.config, recomputer).Listener())

	if c.config.OutboxEnabled {
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return fmt.Errorf("failed to get outbox repository for event pipeline: %w", err)
		}
		pipeline.Register(outboxUseCase.NewRecordingListener(outboxRepo))
	}

	return nil
}

// initWalletStore creates the wallet use case publishing through the pipeline.
func (c *Container) initWalletStore() (walletUseCase.WalletUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for wallet use case: %w", err)
	}

	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for wallet use case: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for wallet use case: %w", err)
	}

	return walletUseCase.NewWalletUseCase(
		txManager,
		walletRepo,
		credentialRepo,
		c.pipeline(),
		c.config.AuthorityWalletID,
	), nil
}

// initWalletUseCase wires the listeners and wraps the store with metrics if enabled.
func (c *Container) initWalletUseCase() (walletUseCase.WalletUseCase, error) {
	if _, err := c.Pipeline(); err != nil {
		return nil, fmt.Errorf("failed to get event pipeline for wallet use case: %w", err)
	}

	baseUseCase, err := c.store()
	if err != nil {
		return nil, err
	}

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for wallet use case: %w", err)
		}
		return walletUseCase.NewWalletUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initCredentialUseCase creates the credential use case.
func (c *Container) initCredentialUseCase() (credentialUseCase.CredentialUseCase, error) {
	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential use case: %w", err)
	}

	engine, err := c.ProofEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get proof engine for credential use case: %w", err)
	}

	return credentialUseCase.NewCredentialUseCase(credentialRepo, engine), nil
}

// initKeyProvisioner creates the key provisioning listener.
func (c *Container) initKeyProvisioner() (*lifecycle.KeyProvisioner, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for key provisioner: %w", err)
	}

	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for key provisioner: %w", err)
	}

	vault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for key provisioner: %w", err)
	}

	return lifecycle.NewKeyProvisioner(txManager, walletRepo, c.KeyFactory(), vault, c.Logger()), nil
}

// initBootstrap creates the authority wallet bootstrap.
func (c *Container) initBootstrap() (*lifecycle.Bootstrap, error) {
	wallets, err := c.WalletUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet use case for bootstrap: %w", err)
	}

	provisioner, err := c.KeyProvisioner()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provisioner for bootstrap: %w", err)
	}

	return lifecycle.NewBootstrap(
		wallets,
		provisioner,
		c.config.AuthorityWalletID,
		c.config.AuthorityWalletName,
		c.Logger(),
	), nil
}
