package app

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/summary"
)

// sweepLockKey is the redis key of the summary sweep lease.
const sweepLockKey = "wallets:summary-sweep"

type summaryComponents struct {
	recomputer  summary.Recomputer
	redisClient *redis.Client
	sweeper     *summary.Sweeper

	recomputerInit  sync.Once
	redisClientInit sync.Once
	sweeperInit     sync.Once
}

// Recomputer returns the summary recompute command.
func (c *Container) Recomputer() (summary.Recomputer, error) {
	var err error
	c.recomputerInit.Do(func() {
		c.recomputer, err = c.initRecomputer()
		if err != nil {
			c.initErrors["recomputer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recomputer"]; exists {
		return nil, storedErr
	}
	return c.recomputer, nil
}

// RedisClient returns the redis client, or nil when REDIS_URL is unset.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// Sweeper returns the scheduled summary sweep.
func (c *Container) Sweeper() (*summary.Sweeper, error) {
	var err error
	c.sweeperInit.Do(func() {
		c.sweeper, err = c.initSweeper()
		if err != nil {
			c.initErrors["sweeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sweeper"]; exists {
		return nil, storedErr
	}
	return c.sweeper, nil
}

// initRecomputer creates the summary command and wraps it with metrics if enabled.
func (c *Container) initRecomputer() (summary.Recomputer, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for summary command: %w", err)
	}

	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for summary command: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for summary command: %w", err)
	}

	holdings, err := c.store()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet use case for summary command: %w", err)
	}

	issuer, err := c.Issuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer for summary command: %w", err)
	}

	var recomputer summary.Recomputer = summary.NewCommand(
		c.config,
		txManager,
		walletRepo,
		credentialRepo,
		holdings,
		issuer,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for summary command: %w", err)
		}
		recomputer = summary.NewRecomputerWithMetrics(recomputer, businessMetrics)
	}

	return recomputer, nil
}

// initRedisClient parses REDIS_URL. The client connects lazily.
func (c *Container) initRedisClient() (*redis.Client, error) {
	if c.config.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigurationFailure, "invalid redis url: "+err.Error())
	}
	return redis.NewClient(opts), nil
}

// initSweeper creates the sweep. Without redis every instance sweeps.
func (c *Container) initSweeper() (*summary.Sweeper, error) {
	if _, err := c.Pipeline(); err != nil {
		return nil, fmt.Errorf("failed to get event pipeline for summary sweep: %w", err)
	}

	walletRepo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for summary sweep: %w", err)
	}

	recomputer, err := c.Recomputer()
	if err != nil {
		return nil, fmt.Errorf("failed to get recomputer for summary sweep: %w", err)
	}

	redisClient, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for summary sweep: %w", err)
	}

	var lock summary.Lock
	if redisClient != nil {
		lock = summary.NewRedisLock(redisClient, sweepLockKey, c.config.SummarySweepLockTTL)
	}

	return summary.NewSweeper(
		walletRepo,
		recomputer,
		lock,
		summary.SweeperConfig{
			Schedule:    c.config.SummarySweepSchedule,
			PageSize:    c.config.SummarySweepPageSize,
			Concurrency: c.config.SummarySweepConcurrency,
			Rate:        c.config.SummarySweepRate,
		},
		c.Logger(),
	), nil
}
