package stripe

import (
	"sync"
)

// LockManager manages per-customer locks to prevent concurrent webhook
// processing for the same customer while allowing parallel processing for
// different customers.
type LockManager struct {
	locks sync.Map // map[string]*sync.Mutex
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// LockCustomer acquires a lock for the given Stripe customer ID.
// Returns a function that must be called to release the lock.
func (lm *LockManager) LockCustomer(customerID string) func() {
	lockInterface, _ := lm.locks.LoadOrStore(customerID, &sync.Mutex{})
	lock, ok := lockInterface.(*sync.Mutex)
	if !ok {
		// This should never happen if we only store *sync.Mutex values
		panic("unexpected type in lock manager")
	}

	lock.Lock()

	return func() {
		lock.Unlock()
	}
}

// CleanupLocks removes unused locks. This can be called periodically to
// prevent memory growth from customers that are no longer active.
func (lm *LockManager) CleanupLocks() {
	lm.locks.Range(func(key, value any) bool {
		lock, ok := value.(*sync.Mutex)
		if !ok {
			return true
		}
		// A lock that can be acquired without blocking is not in use.
		if lock.TryLock() {
			lock.Unlock()
			lm.locks.Delete(key)
		}
		return true
	})
}
