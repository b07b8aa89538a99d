package settings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// settingsHash is the Redis hash holding all configuration keys.
const settingsHash = "matchd:settings"

// RedisStore implements Store on a Redis hash, one field per key.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore parses redisURL, verifies connectivity, and returns a
// Redis-backed settings store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreWithClient wraps an existing client, sharing the connection
// pool with other Redis-backed adapters.
func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// LoadAll implements Store.
func (s *RedisStore) LoadAll(ctx context.Context, keys []string) (map[string]string, error) {
	vals, err := s.rdb.HMGet(ctx, settingsHash, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", settingsHash, err)
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, settingsHash, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s %s: %w", settingsHash, key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
