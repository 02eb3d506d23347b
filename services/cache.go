package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DirectoryCache holds short-lived public directory results.
type DirectoryCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context, keys ...string) error
}

const cacheKeyPrefix = "homeserve:directory:"

func popularServicesKey() string {
	return cacheKeyPrefix + "popular_services"
}

type RedisCache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewRedisCache connects and pings; callers fall back to no cache on error.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{rc: rc, ttl: ttl}, nil
}

func NewRedisCacheFromClient(rc *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rc: rc, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, key, raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rc.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.rc.Close()
}
