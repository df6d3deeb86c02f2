// Package usecase records domain events in the outbox and delivers them to
// an EventProcessor.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/events"
	"github.com/allisson/wallets/internal/outbox/domain"
)

// RecorderPriority runs the outbox recorder after every domain listener so
// only events whose handlers succeeded are stored.
const RecorderPriority = 1000

// Config holds outbox worker configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor delivers one outbox event.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// NewRecordingListener returns a pipeline listener appending every event to
// the outbox inside the publishing transaction.
func NewRecordingListener(repo OutboxEventRepository) events.Listener {
	return events.Listener{
		Name:     "outbox",
		Priority: RecorderPriority,
		Handle: func(ctx context.Context, event events.Event) error {
			outboxEvent, err := domain.NewOutboxEvent(event)
			if err != nil {
				return err
			}
			return repo.Create(ctx, outboxEvent)
		},
	}
}

// OutboxUseCase polls pending outbox events and hands them to an EventProcessor.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
	now            func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Start polls until ctx is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox worker",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox worker")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents delivers one batch of pending events in a transaction.
// Delivery failures increment the retry counter; an event reaching
// MaxRetries is marked failed and no longer polled.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		pending, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		for _, event := range pending {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				uc.logger.Error("failed to deliver outbox event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Any("error", err),
				)

				event.Retries++
				lastError := err.Error()
				event.LastError = &lastError
				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}
			} else {
				processedAt := uc.now()
				event.Status = domain.OutboxEventStatusProcessed
				event.ProcessedAt = &processedAt
			}

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return apperrors.Wrap(err, "failed to update outbox event")
			}
		}

		return nil
	})
}
