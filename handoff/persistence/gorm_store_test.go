package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func TestGormStore_HistoryRoundTrip(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotLead, To: handoff.BotBuyer, Timestamp: now.Add(-time.Hour),
	}))
	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotBuyer, To: handoff.BotSeller, Timestamp: now,
	}))

	histories, err := store.LoadHistory(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, histories["c1"], 2)
	assert.Equal(t, handoff.BotBuyer, histories["c1"][0].To)
	assert.Equal(t, handoff.BotSeller, histories["c1"][1].To)
}

func TestGormStore_LoadHistoryHonorsSince(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotLead, To: handoff.BotBuyer, Timestamp: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotLead, To: handoff.BotSeller, Timestamp: now,
	}))

	histories, err := store.LoadHistory(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, histories["c1"], 1)
}

func TestGormStore_OutcomeRoundTrip(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	rec := handoff.OutcomeRecord{
		ContactID: "c1",
		Route:     handoff.Route{Source: handoff.BotSeller, Target: handoff.BotBuyer},
		Outcome:   handoff.OutcomeReverted,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Metadata:  map[string]any{"reverted_after": "2h"},
	}
	require.NoError(t, store.AppendOutcome(ctx, rec))
	require.NoError(t, store.AppendOutcome(ctx, handoff.OutcomeRecord{
		ContactID: "c2",
		Route:     handoff.Route{Source: handoff.BotLead, Target: handoff.BotBuyer},
		Outcome:   handoff.OutcomeSuccessful,
		Timestamp: time.Now(),
	}))

	got, err := store.LoadOutcomes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, handoff.OutcomeReverted, got[0].Outcome)
	assert.Equal(t, "2h", got[0].Metadata["reverted_after"])
	assert.Nil(t, got[1].Metadata)
}

func TestGormStore_ServiceRestoreIntegration(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	svc, err := handoff.NewService(handoff.DefaultConfig(), nil, handoff.WithStore(store))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		svc.RecordOutcome(ctx, "c1", handoff.BotLead, handoff.BotBuyer, handoff.OutcomeSuccessful, nil)
	}

	fresh, err := handoff.NewService(handoff.DefaultConfig(), nil, handoff.WithStore(store))
	require.NoError(t, err)
	require.NoError(t, fresh.Restore(ctx))

	got := fresh.LearnedAdjustment(handoff.BotLead, handoff.BotBuyer)
	assert.Equal(t, 10, got.SampleSize)
	assert.InDelta(t, -0.05, got.Adjustment, 1e-9)
}
