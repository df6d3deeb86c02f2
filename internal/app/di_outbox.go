package app

import (
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	outboxRepository "github.com/allisson/wallets/internal/outbox/repository"
	outboxUseCase "github.com/allisson/wallets/internal/outbox/usecase"
)

type outboxComponents struct {
	outboxRepository outboxUseCase.OutboxEventRepository
	outboxUseCase    outboxUseCase.UseCase
	kafkaClient      *kgo.Client

	outboxRepositoryInit sync.Once
	outboxUseCaseInit    sync.Once
}

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepositoryInit.Do(func() {
		c.outboxRepository, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepository"]; exists {
		return nil, storedErr
	}
	return c.outboxRepository, nil
}

// OutboxUseCase returns the outbox worker.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	if c.InMemory() {
		txManager, err := c.memoryTxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for outbox repository: %w", err)
		}
		return outboxRepository.NewMemoryOutboxEventRepository(txManager), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxUseCase creates the outbox worker. Events go to kafka when
// brokers are configured and to the log otherwise.
func (c *Container) initOutboxUseCase() (outboxUseCase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	var processor outboxUseCase.EventProcessor = outboxUseCase.NewLogEventProcessor(logger)
	if c.config.KafkaBrokers != "" {
		client, err := outboxUseCase.NewKafkaClient(c.config.KafkaBrokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka client for outbox use case: %w", err)
		}
		c.kafkaClient = client
		processor = outboxUseCase.NewKafkaEventProcessor(client, c.config.KafkaTopic)
	}

	useCaseConfig := outboxUseCase.Config{
		Interval:   c.config.OutboxPollInterval,
		BatchSize:  c.config.OutboxBatchSize,
		MaxRetries: c.config.OutboxMaxRetries,
	}

	return outboxUseCase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, processor, logger), nil
}
