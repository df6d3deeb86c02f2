package repository

import (
	"context"
	"sort"

	"github.com/allisson/wallets/internal/database"
	"github.com/allisson/wallets/internal/outbox/domain"
)

// MemoryOutboxEventRepository keeps outbox events in process memory.
type MemoryOutboxEventRepository struct {
	txManager *database.MemoryTxManager
	events    map[string]domain.OutboxEvent
}

// NewMemoryOutboxEventRepository creates a MemoryOutboxEventRepository
// registered with txManager.
func NewMemoryOutboxEventRepository(txManager *database.MemoryTxManager) *MemoryOutboxEventRepository {
	r := &MemoryOutboxEventRepository{
		txManager: txManager,
		events:    make(map[string]domain.OutboxEvent),
	}
	txManager.Register(r)
	return r
}

// Snapshot implements database.Snapshotter.
func (r *MemoryOutboxEventRepository) Snapshot() func() {
	events := make(map[string]domain.OutboxEvent, len(r.events))
	for id, event := range r.events {
		events[id] = event
	}
	return func() {
		r.events = events
	}
}

// Create inserts a new outbox event
func (r *MemoryOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	defer r.txManager.Enter(ctx)()
	r.events[event.ID.String()] = *event
	return nil
}

// GetPendingEvents returns up to limit pending events, oldest first.
func (r *MemoryOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	defer r.txManager.Enter(ctx)()

	var pending []*domain.OutboxEvent
	for _, event := range r.events {
		if event.Status == domain.OutboxEventStatusPending {
			e := event
			pending = append(pending, &e)
		}
	}
	// V7 ids are time ordered.
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID.String() < pending[j].ID.String()
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Update stores the delivery state of an outbox event
func (r *MemoryOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	defer r.txManager.Enter(ctx)()
	r.events[event.ID.String()] = *event
	return nil
}

// Events returns every stored event, oldest first.
func (r *MemoryOutboxEventRepository) Events(ctx context.Context) []domain.OutboxEvent {
	defer r.txManager.Enter(ctx)()

	all := make([]domain.OutboxEvent, 0, len(r.events))
	for _, event := range r.events {
		all = append(all, event)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})
	return all
}
