package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	cryptoService "github.com/allisson/wallets/internal/crypto/service"
	"github.com/allisson/wallets/internal/errors"
	keyvaultRepository "github.com/allisson/wallets/internal/keyvault/repository"
	keyvaultService "github.com/allisson/wallets/internal/keyvault/service"
)

// Key vault providers.
const (
	keyVaultMemory = "memory"
	keyVaultKMS    = "kms"
)

type keyVaultComponents struct {
	keyVault   keyvaultService.KeyVault
	keyFactory *keyvaultService.KeyFactory
	kmsKeeper  cryptoDomain.KMSKeeper

	// memoryBackend is set when the memory provider is selected.
	memoryBackend *keyvaultService.MemoryBackend

	keyVaultInit   sync.Once
	keyFactoryInit sync.Once
}

// KeyVault returns the key vault.
func (c *Container) KeyVault() (keyvaultService.KeyVault, error) {
	var err error
	c.keyVaultInit.Do(func() {
		c.keyVault, err = c.initKeyVault()
		if err != nil {
			c.initErrors["keyVault"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyVault"]; exists {
		return nil, storedErr
	}
	return c.keyVault, nil
}

// KeyFactory returns the key factory.
func (c *Container) KeyFactory() *keyvaultService.KeyFactory {
	c.keyFactoryInit.Do(func() {
		c.keyFactory = keyvaultService.NewKeyFactory()
	})
	return c.keyFactory
}

// initKeyVault selects the custody backend. The memory backend forgets its
// custody keys on restart and, under the memory driver, is rolled back with
// the memory stores; the kms backend persists them wrapped by the configured
// KMS key.
func (c *Container) initKeyVault() (keyvaultService.KeyVault, error) {
	alg := cryptoDomain.Algorithm(c.config.CustodyKeyAlgorithm)
	if !alg.Valid() {
		return nil, errors.Wrap(
			errors.ErrConfigurationFailure,
			fmt.Sprintf("unsupported custody key algorithm: %s", c.config.CustodyKeyAlgorithm),
		)
	}

	switch c.config.KeyVaultProvider {
	case keyVaultMemory:
		backend := keyvaultService.NewMemoryBackend(alg)
		if c.InMemory() {
			txManager, err := c.memoryTxManager()
			if err != nil {
				return nil, fmt.Errorf("failed to get tx manager for key vault: %w", err)
			}
			txManager.Register(backend)
		}
		c.memoryBackend = backend
		return keyvaultService.NewVault(backend), nil
	case keyVaultKMS:
		backend, err := c.initKMSBackend(alg)
		if err != nil {
			return nil, err
		}
		return keyvaultService.NewVault(backend), nil
	default:
		return nil, errors.Wrap(
			errors.ErrConfigurationFailure,
			fmt.Sprintf("unsupported key vault provider: %s", c.config.KeyVaultProvider),
		)
	}
}

func (c *Container) initKMSBackend(alg cryptoDomain.Algorithm) (*keyvaultService.KMSBackend, error) {
	if c.InMemory() {
		return nil, errors.Wrap(errors.ErrConfigurationFailure, "kms key vault requires a sql database driver")
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for custody key repository: %w", err)
	}

	var repo keyvaultService.CustodyKeyRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = keyvaultRepository.NewPostgreSQLCustodyKeyRepository(db)
	case "mysql":
		repo = keyvaultRepository.NewMySQLCustodyKeyRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	keeper, err := cryptoService.NewKMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigurationFailure, err.Error())
	}
	c.kmsKeeper = keeper

	return keyvaultService.NewKMSBackend(keeper, repo, alg), nil
}
