package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/CatalogGo/pkg/errors"
)

// ErrMiss signals an absent key. All other Store errors mean the store itself
// is unavailable.
var ErrMiss = errors.New("cache miss")

// Store is the key-value contract the catalog cache runs on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store on a redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves raw bytes by key. Returns ErrMiss when the key is absent and
// CacheUnavailable when redis cannot be reached.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, apperrors.CacheUnavailable(err)
	}
	return data, nil
}

// Set stores raw bytes under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.CacheUnavailable(err)
	}
	return nil
}
