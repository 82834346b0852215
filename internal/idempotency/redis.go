package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:v1:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient parses url and verifies the server answers a PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("NewRedisClient: redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisClient: parse url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: ping: %w", err)
	}
	return client, nil
}

func cacheKey(scope, key string) string {
	return keyPrefix + scope + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, scope, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, cacheKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) Reserve(ctx context.Context, entry *Entry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("Reserve: encode: %w", err)
	}
	ok, err := s.client.SetNX(ctx, cacheKey(entry.Scope, entry.Key), payload, ttlUntil(entry.ExpiresAt)).Result()
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Set(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("Set: encode: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(entry.Scope, entry.Key), payload, ttlUntil(entry.ExpiresAt)).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, cacheKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func ttlUntil(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
