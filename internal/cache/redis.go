package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const generationPrefix = "qaportal:gen:"

// RedisCache shares cached responses and generations between API replicas,
// so a bump on one node retires the entries of all of them.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

// Get treats redis failures as misses; the store is the source of truth.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) {
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c *RedisCache) Generation(ctx context.Context, scope string) (int64, bool) {
	gen, err := c.rdb.Get(ctx, generationPrefix+scope).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.log.WarnContext(ctx, "cache generation read failed", "scope", scope, "err", err)
		return 0, false
	}
	return gen, true
}

// Generation keys carry no TTL. A counter that expired would restart at 0 and
// match entries written before it.
func (c *RedisCache) Bump(ctx context.Context, scope string) {
	if err := c.rdb.Incr(ctx, generationPrefix+scope).Err(); err != nil {
		c.log.ErrorContext(ctx, "cache generation bump failed", "scope", scope, "err", err)
	}
}
