// Package profile stores per-user wallet data: loyalty balances, first name,
// home airport, and similar fields the wallet strategy binds into its prompt.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"loyalty_qa/pkg"
)

// Store is the user profile contract. A user with no stored profile yields an
// empty mapping, not an error.
type Store interface {
	Get(ctx context.Context, userID string) (map[string]string, error)
	Set(ctx context.Context, userID string, data map[string]string) error
	HealthCheck(ctx context.Context) error
}

// RedisStore keeps profiles in Redis under wallet:{user_id} keys.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	key := "wallet:" + userID
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", pkg.ErrProfileLookup, err)
	}

	var profile map[string]string
	if err := sonic.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling profile: %v", pkg.ErrProfileLookup, err)
	}

	// Refresh TTL
	r.client.Expire(ctx, key, r.ttl)
	return profile, nil
}

func (r *RedisStore) Set(ctx context.Context, userID string, data map[string]string) error {
	payload, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return r.client.Set(ctx, "wallet:"+userID, payload, r.ttl).Err()
}

func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.profiles[userID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, userID string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(map[string]string, len(data))
	for k, v := range data {
		stored[k] = v
	}
	m.profiles[userID] = stored
	return nil
}

func (m *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}
