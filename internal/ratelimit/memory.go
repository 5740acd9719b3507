package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the table size that triggers an eviction sweep of expired
// entries on the next write.
const sweepThreshold = 1024

// MemoryStore is a mutex-guarded in-memory Store. State does not survive a
// process restart, which is intentional: the limiter is best effort. When the
// table grows past sweepThreshold a write opportunistically removes every
// entry whose window has already passed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for key, or (nil, nil) if absent.
func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Set stores the entry for key. The ttl is ignored; expiry is carried by the
// entry itself and enforced by the sweep and by per-entry staleness checks.
func (m *MemoryStore) Set(_ context.Context, key string, e Entry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) > sweepThreshold {
		m.sweep()
	}
	m.entries[key] = e
	return nil
}

// Delete removes the entry for key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// sweep removes expired entries. Caller must hold the write lock.
func (m *MemoryStore) sweep() {
	now := time.Now()
	for key, e := range m.entries {
		if !now.Before(e.Reset) {
			delete(m.entries, key)
		}
	}
}
