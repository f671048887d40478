package handoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistoryLog_AppendAndCount(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)
	now := time.Now()

	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: now.Add(-2 * time.Hour)})
	h.Append("c1", HistoryEntry{From: BotBuyer, To: BotSeller, Timestamp: now.Add(-10 * time.Minute)})

	assert.Equal(t, 1, h.CountSince("c1", time.Hour))
	assert.Equal(t, 2, h.CountSince("c1", 24*time.Hour))
	assert.Zero(t, h.CountSince("c2", 24*time.Hour))
}

func TestHistoryLog_HasRecentRoute(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)
	now := time.Now()

	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: now.Add(-10 * time.Minute)})

	assert.True(t, h.HasRecentRoute("c1", Route{Source: BotLead, Target: BotBuyer}, 30*time.Minute))
	assert.False(t, h.HasRecentRoute("c1", Route{Source: BotBuyer, Target: BotLead}, 30*time.Minute),
		"reverse direction is a different route")
	assert.False(t, h.HasRecentRoute("c1", Route{Source: BotLead, Target: BotSeller}, 30*time.Minute))
}

func TestHistoryLog_RecentRouteExpires(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)

	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: time.Now().Add(-31 * time.Minute)})

	assert.False(t, h.HasRecentRoute("c1", Route{Source: BotLead, Target: BotBuyer}, 30*time.Minute))
}

func TestHistoryLog_PruneDropsExpired(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)
	now := time.Now()

	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: now.Add(-25 * time.Hour)})
	h.Append("c1", HistoryEntry{From: BotLead, To: BotSeller, Timestamp: now.Add(-1 * time.Hour)})

	h.Prune("c1")

	entries := h.Snapshot("c1")
	assert.Len(t, entries, 1)
	assert.Equal(t, BotSeller, entries[0].To)
}

func TestHistoryLog_PruneRemovesEmptyContacts(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)

	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: time.Now().Add(-25 * time.Hour)})
	h.Prune("c1")

	assert.Empty(t, h.Snapshot("c1"))
	h.mu.Lock()
	_, exists := h.entries["c1"]
	h.mu.Unlock()
	assert.False(t, exists, "fully pruned contacts drop their map key")
}

func TestHistoryLog_Restore(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)
	now := time.Now()

	h.Restore("c1", []HistoryEntry{
		{From: BotLead, To: BotBuyer, Timestamp: now.Add(-2 * time.Hour)},
		{From: BotBuyer, To: BotSeller, Timestamp: now.Add(-1 * time.Hour)},
	})

	assert.Equal(t, 2, h.CountSince("c1", 24*time.Hour))

	h.Restore("c1", nil)
	assert.Empty(t, h.Snapshot("c1"))
}

func TestHistoryLog_SnapshotIsCopy(t *testing.T) {
	h := newHistoryLog(24 * time.Hour)
	h.Append("c1", HistoryEntry{From: BotLead, To: BotBuyer, Timestamp: time.Now()})

	snap := h.Snapshot("c1")
	snap[0].To = BotSeller

	assert.Equal(t, BotBuyer, h.Snapshot("c1")[0].To)
}
