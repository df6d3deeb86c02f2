package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	apperrors "github.com/allisson/wallets/internal/errors"
	"github.com/allisson/wallets/internal/outbox/domain"
)

// LogEventProcessor writes every event to the log.
type LogEventProcessor struct {
	logger *slog.Logger
}

// NewLogEventProcessor creates a new LogEventProcessor
func NewLogEventProcessor(logger *slog.Logger) *LogEventProcessor {
	return &LogEventProcessor{logger: logger}
}

// Process decodes the event and logs it.
func (p *LogEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	decoded, err := event.Event()
	if err != nil {
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("kind", string(decoded.Kind)),
		slog.String("wallet_id", decoded.WalletID),
	}
	if decoded.CredentialID != "" {
		attrs = append(attrs,
			slog.String("credential_id", decoded.CredentialID),
			slog.Any("credential_types", decoded.CredentialTypes),
		)
	}
	p.logger.InfoContext(ctx, "wallet event", attrs...)
	return nil
}

// RecordProducer is the subset of *kgo.Client used for publishing.
type RecordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaEventProcessor publishes events to a Kafka topic keyed by wallet id,
// keeping every wallet's events on one partition in order.
type KafkaEventProcessor struct {
	producer RecordProducer
	topic    string
}

// NewKafkaEventProcessor creates a new KafkaEventProcessor
func NewKafkaEventProcessor(producer RecordProducer, topic string) *KafkaEventProcessor {
	return &KafkaEventProcessor{producer: producer, topic: topic}
}

// NewKafkaClient creates a franz-go client for a comma-separated broker list.
func NewKafkaClient(brokers string) (*kgo.Client, error) {
	var seeds []string
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			seeds = append(seeds, broker)
		}
	}
	if len(seeds) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrConfigurationFailure, "kafka brokers not configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create kafka client")
	}
	return client, nil
}

// Process publishes the event payload and waits for the acknowledgement.
func (p *KafkaEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.WalletID),
		Value: []byte(event.Payload),
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return apperrors.Wrap(err, "failed to publish outbox event")
	}
	return nil
}
