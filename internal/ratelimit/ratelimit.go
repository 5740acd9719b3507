// Package ratelimit implements fixed-window request counting keyed by client
// identity. Requests are counted in discrete, non-overlapping windows and the
// counter resets entirely at each window boundary. This is deliberately not a
// sliding window: a client can spend a full allowance at the end of one
// window and another at the start of the next, up to 2x the limit in a short
// span straddling the boundary. That approximation is accepted; the limiter
// is a best-effort guard against abuse, not a security control.
//
// Window state lives behind the Store interface so a single-instance
// deployment can use the in-memory store while multi-instance deployments
// share state through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.vocdoni.io/dvote/log"
)

// Entry is the window state kept per client key.
type Entry struct {
	// Count is the number of permitted requests in the current window.
	Count int `json:"count"`
	// Reset is the instant the current window ends.
	Reset time.Time `json:"reset"`
}

// Store persists window state keyed by client identity. Get returns
// (nil, nil) when no entry exists for the key. Implementations may drop
// entries whose window has passed at any time; the limiter re-checks
// staleness per entry at lookup time, so eviction is only an optimization.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Limiter counts requests per key within fixed windows backed by a Store.
type Limiter struct {
	store Store
	locks sync.Map // map[string]*sync.Mutex, one per active key
}

// New creates a Limiter over the given store. A nil store defaults to an
// in-memory one.
func New(store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{store: store}
}

// keyLock returns the mutex serializing the read-modify-write for a key.
func (l *Limiter) keyLock(key string) *sync.Mutex {
	actual, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Allow reports whether the request identified by key is permitted under the
// given limit and window. The first request from a key, or the first one
// after the window has passed, starts a fresh window with count 1. A denied
// request does not mutate state.
//
// Store failures fail open: an unreachable shared store must not take the
// payment API down with it, so the request is permitted and the failure
// logged.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	e, err := l.store.Get(ctx, key)
	if err != nil {
		log.Warnw("rate limit store lookup failed, permitting request", "key", key, "error", err)
		return true
	}

	if e == nil || !now.Before(e.Reset) {
		fresh := Entry{Count: 1, Reset: now.Add(window)}
		if err := l.store.Set(ctx, key, fresh, window); err != nil {
			log.Warnw("rate limit store write failed", "key", key, "error", err)
		}
		return true
	}

	if e.Count < limit {
		e.Count++
		if err := l.store.Set(ctx, key, *e, time.Until(e.Reset)); err != nil {
			log.Warnw("rate limit store write failed", "key", key, "error", err)
		}
		return true
	}

	return false
}

// Remaining returns how many requests the key may still make in the current
// window. A key with no active window has the full limit available.
// Read-only.
func (l *Limiter) Remaining(ctx context.Context, key string, limit int) int {
	e, err := l.store.Get(ctx, key)
	if err != nil {
		log.Warnw("rate limit store lookup failed", "key", key, "error", err)
		return limit
	}
	if e == nil || !time.Now().Before(e.Reset) {
		return limit
	}
	if remaining := limit - e.Count; remaining > 0 {
		return remaining
	}
	return 0
}

// ResetAfter returns the time until the key's current window ends, clamped to
// zero. A key with no active window returns zero. Read-only.
func (l *Limiter) ResetAfter(ctx context.Context, key string) time.Duration {
	e, err := l.store.Get(ctx, key)
	if err != nil {
		log.Warnw("rate limit store lookup failed", "key", key, "error", err)
		return 0
	}
	if e == nil {
		return 0
	}
	if d := time.Until(e.Reset); d > 0 {
		return d
	}
	return 0
}
