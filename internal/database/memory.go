package database

import (
	"context"
	"sync"
	"time"
)

type memoryTxKey struct{}

type memoryTx struct{}

// Snapshotter is implemented by in-memory stores taking part in memory
// transactions. Snapshot returns a function restoring the captured state.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryTxManager serializes access to in-memory stores and gives them
// all-or-nothing semantics: on error every registered store is restored to
// the state captured when the outermost transaction began.
type MemoryTxManager struct {
	mu      sync.Mutex
	stores  []Snapshotter
	timeout time.Duration
}

// NewMemoryTxManager creates a MemoryTxManager. A positive timeout bounds
// every outermost transaction.
func NewMemoryTxManager(timeout time.Duration) *MemoryTxManager {
	return &MemoryTxManager{timeout: timeout}
}

// Register adds a store to the set restored on rollback.
func (m *MemoryTxManager) Register(store Snapshotter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, store)
}

// WithTx runs fn while holding the store lock. Nested calls join the
// outer transaction.
func (m *MemoryTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.stores))
	for _, store := range m.stores {
		restores = append(restores, store.Snapshot())
	}

	ctx = context.WithValue(ctx, memoryTxKey{}, &memoryTx{})

	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// Enter guards a store call made outside WithTx. Calls inside a memory
// transaction already hold the lock and get a no-op release.
func (m *MemoryTxManager) Enter(ctx context.Context) (release func()) {
	if _, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}
