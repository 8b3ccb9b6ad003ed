package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lamnt-dev/drivebox/internal/adapter"
)

// DefaultTTL bounds how long a listing may be served without a refetch.
// Invalidation is explicit; the TTL only guards against forgotten keys.
const DefaultTTL = 24 * time.Hour

// RedisStore implements Store on top of Redis. Listings are stored as JSON
// arrays under their scope key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore from a Redis URL
// (e.g. "redis://localhost:6379").
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: DefaultTTL}, nil
}

// Get returns the cached listing for the scope, if present.
func (s *RedisStore) Get(ctx context.Context, key Key) ([]adapter.Entry, bool, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var entries []adapter.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Treat a corrupt value as a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return entries, true, nil
}

// Set stores the listing for the scope.
func (s *RedisStore) Set(ctx context.Context, key Key, entries []adapter.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	if err := s.client.Set(ctx, key.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a single scope.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every key under the prefix using SCAN, so a large
// keyspace does not block the server.
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %q: %w", prefix, err)
	}
	return nil
}

// Flush removes all listing scopes.
func (s *RedisStore) Flush(ctx context.Context) error {
	return s.DeleteByPrefix(ctx, ListingPrefix)
}
