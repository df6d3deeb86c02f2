// Package domain defines the durable record of published domain events.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/wallets/internal/events"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent is a domain event appended in the transaction that raised it
// and delivered later by the outbox worker.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	WalletID    string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent builds a pending outbox event carrying event as JSON.
func NewOutboxEvent(event events.Event) (*OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate outbox event id: %w", err)
	}

	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        id,
		EventType: string(event.Kind),
		WalletID:  event.WalletID,
		Payload:   string(payload),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Event decodes the payload.
func (e *OutboxEvent) Event() (events.Event, error) {
	var event events.Event
	if err := json.Unmarshal([]byte(e.Payload), &event); err != nil {
		return events.Event{}, fmt.Errorf("failed to decode outbox event %s: %w", e.ID, err)
	}
	return event, nil
}
