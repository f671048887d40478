package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreFromClient(client, "")
}

func TestRedisStore_HistoryRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotLead, To: handoff.BotBuyer, Timestamp: now.Add(-time.Hour),
	}))
	require.NoError(t, store.AppendHistory(ctx, "c1", handoff.HistoryEntry{
		From: handoff.BotBuyer, To: handoff.BotSeller, Timestamp: now,
	}))
	require.NoError(t, store.AppendHistory(ctx, "c2", handoff.HistoryEntry{
		From: handoff.BotLead, To: handoff.BotSeller, Timestamp: now,
	}))

	histories, err := store.LoadHistory(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, histories, 2)
	require.Len(t, histories["c1"], 2)
	assert.Equal(t, handoff.BotLead, histories["c1"][0].From)
	assert.Equal(t, handoff.BotSeller, histories["c1"][1].To)
	assert.True(t, histories["c1"][0].Timestamp.Equal(now.Add(-time.Hour)))
	require.Len(t, histories["c2"], 1)
}

func TestRedisStore_LoadHistoryHonorsSince(t *testing.T) {
	store := newTestRedisStore(t)
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
	assert.Equal(t, handoff.BotSeller, histories["c1"][0].To)
}

func TestRedisStore_OutcomeRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	rec := handoff.OutcomeRecord{
		ContactID: "c1",
		Route:     handoff.Route{Source: handoff.BotLead, Target: handoff.BotBuyer},
		Outcome:   handoff.OutcomeSuccessful,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Metadata:  map[string]any{"note": "closed in 12 days"},
	}
	require.NoError(t, store.AppendOutcome(ctx, rec))

	got, err := store.LoadOutcomes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ContactID, got[0].ContactID)
	assert.Equal(t, rec.Route, got[0].Route)
	assert.Equal(t, rec.Outcome, got[0].Outcome)
	assert.Equal(t, "closed in 12 days", got[0].Metadata["note"])
}

func TestRedisStore_EmptyLedgers(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	histories, err := store.LoadHistory(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, histories)

	outcomes, err := store.LoadOutcomes(ctx)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
