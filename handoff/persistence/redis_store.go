package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	PoolSize  int    `yaml:"pool_size" json:"pool_size"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// RedisStore mirrors handoff history and outcomes into Redis. History lives
// in per-contact sorted sets scored by timestamp; outcomes in a single
// append-only list.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client, used by tests and by
// callers sharing a connection pool.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "jorge:handoff:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks store health.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) historyKey(contactID string) string {
	return s.keyPrefix + "history:" + contactID
}

func (s *RedisStore) contactsKey() string {
	return s.keyPrefix + "contacts"
}

func (s *RedisStore) outcomesKey() string {
	return s.keyPrefix + "outcomes"
}

// AppendHistory mirrors one completed handoff.
func (s *RedisStore) AppendHistory(ctx context.Context, contactID string, entry handoff.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.historyKey(contactID), redis.Z{
		Score:  float64(entry.Timestamp.UnixNano()),
		Member: payload,
	})
	pipe.SAdd(ctx, s.contactsKey(), contactID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// AppendOutcome mirrors one recorded outcome.
func (s *RedisStore) AppendOutcome(ctx context.Context, rec handoff.OutcomeRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	if err := s.client.RPush(ctx, s.outcomesKey(), payload).Err(); err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	return nil
}

// LoadHistory returns every contact's entries newer than since.
func (s *RedisStore) LoadHistory(ctx context.Context, since time.Time) (map[string][]handoff.HistoryEntry, error) {
	contactIDs, err := s.client.SMembers(ctx, s.contactsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("load contact index: %w", err)
	}

	min := strconv.FormatInt(since.UnixNano(), 10)
	out := make(map[string][]handoff.HistoryEntry, len(contactIDs))
	for _, contactID := range contactIDs {
		members, err := s.client.ZRangeByScore(ctx, s.historyKey(contactID), &redis.ZRangeBy{
			Min: min,
			Max: "+inf",
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", contactID, err)
		}
		if len(members) == 0 {
			continue
		}
		entries := make([]handoff.HistoryEntry, 0, len(members))
		for _, member := range members {
			var e handoff.HistoryEntry
			if err := json.Unmarshal([]byte(member), &e); err != nil {
				return nil, fmt.Errorf("decode history entry for %s: %w", contactID, err)
			}
			entries = append(entries, e)
		}
		out[contactID] = entries
	}
	return out, nil
}

// LoadOutcomes returns the full outcome ledger.
func (s *RedisStore) LoadOutcomes(ctx context.Context) ([]handoff.OutcomeRecord, error) {
	raw, err := s.client.LRange(ctx, s.outcomesKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	out := make([]handoff.OutcomeRecord, 0, len(raw))
	for _, item := range raw {
		var rec handoff.OutcomeRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode outcome: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ handoff.Store = (*RedisStore)(nil)
