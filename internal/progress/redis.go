package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "interview:progress:"

// RedisStore persists snapshots in Redis. Keys carry a TTL equal to the
// freshness window so Redis itself expires what Load would reject anyway;
// the usability check still runs on Load in case a key outlives its data.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		now: time.Now,
	}
}

// NewRedisStoreWithClient wraps an existing client, useful for tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, ErrNoProgress
	}
	if !snap.Usable(s.now()) {
		return nil, ErrNoProgress
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, snap *Snapshot) error {
	snap.SavedAt = s.now()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, data, FreshnessWindow).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshot from redis: %w", err)
	}
	return nil
}

// Sweep is a no-op for Redis: expiry is handled by key TTLs.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
