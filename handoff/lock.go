package handoff

import (
	"sync"
	"time"
)

// LockManager provides advisory per-contact mutual exclusion so at most one
// handoff executes at a time for a given contact. It is in-process only: it
// does not coordinate across nodes.
type LockManager struct {
	timeout time.Duration
	mu      sync.Mutex
	active  map[string]time.Time
}

// NewLockManager creates a lock manager. Locks older than timeout are
// treated as stale and may be overwritten at acquire time.
func NewLockManager(timeout time.Duration) *LockManager {
	return &LockManager{
		timeout: timeout,
		active:  make(map[string]time.Time),
	}
}

// TryAcquire attempts to take the lock for a contact. It fails only when a
// non-stale lock is already held.
func (l *LockManager) TryAcquire(contactID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acquiredAt, held := l.active[contactID]; held && time.Since(acquiredAt) <= l.timeout {
		return false
	}
	l.active[contactID] = time.Now()
	return true
}

// Release drops the lock for a contact. Releasing an unheld lock is a no-op.
func (l *LockManager) Release(contactID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, contactID)
}

// Held reports whether a non-stale lock exists for the contact.
func (l *LockManager) Held(contactID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	acquiredAt, held := l.active[contactID]
	return held && time.Since(acquiredAt) <= l.timeout
}
