package events

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Handler reacts to an event. Returning an error aborts the publishing write.
type Handler func(ctx context.Context, event Event) error

// Listener is a named handler subscribed to some event kinds. Lower
// priorities run first; an empty Kinds list subscribes to every kind.
type Listener struct {
	Name     string
	Kinds    []Kind
	Priority int
	Handle   Handler
}

func (l Listener) matches(kind Kind) bool {
	if len(l.Kinds) == 0 {
		return true
	}
	for _, k := range l.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Pipeline dispatches events to its listeners synchronously, in priority
// order. Listeners with equal priority keep their registration order.
type Pipeline struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

// NewPipeline creates an empty Pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Register adds listeners and re-sorts the dispatch list.
func (p *Pipeline) Register(listeners ...Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listeners = append(p.listeners, listeners...)
	sort.SliceStable(p.listeners, func(i, j int) bool {
		return p.listeners[i].Priority < p.listeners[j].Priority
	})
}

// Listeners returns the dispatch list in execution order.
func (p *Pipeline) Listeners() []Listener {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Listener(nil), p.listeners...)
}

// Publish runs every listener subscribed to the event's kind and stops at
// the first failure.
func (p *Pipeline) Publish(ctx context.Context, event Event) error {
	for _, listener := range p.Listeners() {
		if !listener.matches(event.Kind) {
			continue
		}

		p.logger.Debug("dispatching event",
			slog.String("kind", string(event.Kind)),
			slog.String("wallet_id", event.WalletID),
			slog.String("listener", listener.Name),
		)

		if err := listener.Handle(ctx, event); err != nil {
			return fmt.Errorf("listener %s failed on %s: %w", listener.Name, event.Kind, err)
		}
	}
	return nil
}
