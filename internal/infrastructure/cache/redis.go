package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisConfigFromURL accepts either host:port or a redis:// URL
func RedisConfigFromURL(raw, keyPrefix string) (RedisConfig, error) {
	if !strings.Contains(raw, "://") {
		return RedisConfig{Addr: raw, KeyPrefix: keyPrefix}, nil
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return RedisConfig{}, fmt.Errorf("parse redis url: %w", err)
	}
	return RedisConfig{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		KeyPrefix: keyPrefix,
	}, nil
}

// RedisCache implements domain.CacheRepository on Redis.
// Connection failures are reported as domain.ErrCacheUnavailable.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig, log *zap.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: connect to redis at %s: %v", domain.ErrCacheUnavailable, cfg.Addr, err)
	}

	log = logger.OrNop(log)
	log.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return NewRedisCacheFromClient(rdb, cfg.KeyPrefix, log), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client, prefix string, log *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, logger: logger.OrNop(log)}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value by key
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return val, nil
}

// Set stores a value with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Exists checks whether a key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return n > 0, nil
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
