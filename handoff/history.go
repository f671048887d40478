package handoff

import (
	"sync"
	"time"
)

// historyLog is the per-contact sliding-window record of completed handoffs.
// It backs both circular-handoff prevention and the hourly/daily rate
// limits, so the guards and the append that follows them observe the same
// collection under one mutex.
type historyLog struct {
	retention time.Duration
	mu        sync.Mutex
	entries   map[string][]HistoryEntry
}

func newHistoryLog(retention time.Duration) *historyLog {
	return &historyLog{
		retention: retention,
		entries:   make(map[string][]HistoryEntry),
	}
}

// Append records a completed handoff for a contact. Entries arrive in
// completion order, so timestamps stay non-decreasing within the window.
func (h *historyLog) Append(contactID string, e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[contactID] = append(h.entries[contactID], e)
}

// Prune lazily drops a contact's entries older than the retention window.
func (h *historyLog) Prune(contactID string) {
	cutoff := time.Now().Add(-h.retention)

	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.entries[contactID]
	kept := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(h.entries, contactID)
		return
	}
	h.entries[contactID] = kept
}

// HasRecentRoute reports whether the contact already completed a handoff on
// the exact same route within the window.
func (h *historyLog) HasRecentRoute(contactID string, route Route, window time.Duration) bool {
	cutoff := time.Now().Add(-window)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries[contactID] {
		if e.From == route.Source && e.To == route.Target && e.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

// CountSince counts the contact's handoffs inside the rolling window,
// regardless of direction.
func (h *historyLog) CountSince(contactID string, window time.Duration) int {
	cutoff := time.Now().Add(-window)

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, e := range h.entries[contactID] {
		if e.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the contact's retained entries.
func (h *historyLog) Snapshot(contactID string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.entries[contactID]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// Restore replaces a contact's entries wholesale, used when rebuilding
// in-memory state from a durable mirror.
func (h *historyLog) Restore(contactID string, entries []HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(entries) == 0 {
		delete(h.entries, contactID)
		return
	}
	cp := make([]HistoryEntry, len(entries))
	copy(cp, entries)
	h.entries[contactID] = cp
}
