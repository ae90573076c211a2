package rediscache

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/utils"
)

// Cache is a small JSON cache in front of Redis. When Redis is not
// configured the cache degrades to all-miss behavior so callers never
// need a nil check.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type cache struct {
	log *logger.Logger
	rdb *redis.Client
}

// New connects to REDIS_ADDR. A missing address or a failed ping yields a
// disabled cache, not an error; caching is an optimization, not a dependency.
func New(log *logger.Logger) Cache {
	cacheLog := log.With("client", "RedisCache")

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		cacheLog.Warn("REDIS_ADDR not set, cache disabled")
		return &cache{log: cacheLog}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		cacheLog.Warn("Redis ping failed, cache disabled", "addr", addr, "error", err)
		return &cache{log: cacheLog}
	}

	cacheLog.Info("Connected to Redis", "addr", addr)
	return &cache{log: cacheLog, rdb: rdb}
}

func (c *cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}
