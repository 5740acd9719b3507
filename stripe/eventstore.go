package stripe

import (
	"sync"
	"time"

	"github.com/floatpay/payments-backend/db"
	"go.vocdoni.io/dvote/log"
)

// EventStore tracks which webhook events have already been processed, so a
// redelivered event is acknowledged without re-running its side effects.
type EventStore interface {
	EventExists(eventID string) bool
	MarkProcessed(eventID string, eventType string) error
}

// MemoryEventStore is an in-memory EventStore for single-instance
// deployments. Entries expire after a TTL matching Stripe's redelivery
// horizon.
type MemoryEventStore struct {
	events map[string]time.Time
	mutex  sync.RWMutex
	ttl    time.Duration
}

// NewMemoryEventStore creates a new in-memory event store. A zero ttl
// defaults to 24 hours.
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
	}

	go store.cleanup()

	return store
}

// EventExists checks if an event has already been processed
func (m *MemoryEventStore) EventExists(eventID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, exists := m.events[eventID]
	return exists
}

// MarkProcessed marks an event as processed
func (m *MemoryEventStore) MarkProcessed(eventID string, _ string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.events[eventID] = time.Now()
	return nil
}

// cleanup removes expired events periodically
func (m *MemoryEventStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		m.mutex.Lock()
		now := time.Now()
		for eventID, timestamp := range m.events {
			if now.Sub(timestamp) > m.ttl {
				delete(m.events, eventID)
			}
		}
		m.mutex.Unlock()
	}
}

// Size returns the number of stored events (for monitoring/debugging)
func (m *MemoryEventStore) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.events)
}

// MongoEventStore persists processed events in MongoDB so idempotency
// survives restarts and is shared between instances. Store failures are
// logged and treated as "not seen": reprocessing an event is preferable to
// dropping it.
type MongoEventStore struct {
	db *db.MongoStorage
}

// NewMongoEventStore creates an EventStore over the given storage.
func NewMongoEventStore(database *db.MongoStorage) *MongoEventStore {
	return &MongoEventStore{db: database}
}

// EventExists checks if an event has already been processed
func (m *MongoEventStore) EventExists(eventID string) bool {
	exists, err := m.db.HasWebhookEvent(eventID)
	if err != nil {
		log.Warnw("webhook event lookup failed", "event", eventID, "error", err)
		return false
	}
	return exists
}

// MarkProcessed marks an event as processed
func (m *MongoEventStore) MarkProcessed(eventID string, eventType string) error {
	return m.db.SetWebhookEvent(eventID, eventType)
}
