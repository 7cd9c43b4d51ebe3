package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores small display strings for the collaborator lookups.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewCache returns a redis-backed cache, or a no-op cache when client is nil.
func NewCache(client *redis.Client) Cache {
	if client == nil {
		return noopCache{}
	}
	return &redisCache{client: client}
}

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, string) error { return nil }

// cacheOrLoad reads key from cache, falling back to load on a miss or a cache
// failure. Loaded values are written back best-effort.
func cacheOrLoad(ctx context.Context, cache Cache, key string, ttl time.Duration, load func() (string, error)) (string, error) {
	if val, ok, err := cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to database")
	} else if ok {
		return val, nil
	}

	val, err := load()
	if err != nil {
		return "", err
	}
	if err := cache.Set(ctx, key, val, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return val, nil
}
