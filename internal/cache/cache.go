package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the Blob & Queue Store's key/value surface: image blobs, the
// content-hash dedup index, and per-job retry counters. All operations
// must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error

	SetImage(ctx context.Context, jobID int64, data []byte, ttl time.Duration) error
	GetImage(ctx context.Context, jobID int64) ([]byte, bool, error)
	DeleteImage(ctx context.Context, jobID int64) error

	SetDedup(ctx context.Context, sha256Hex string, jobID int64, ttl time.Duration) error
	GetDedup(ctx context.Context, sha256Hex string) (int64, bool, error)

	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
	DeleteRetryCounter(ctx context.Context, jobID int64) error
}

// RedisCache implements Cache using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetImage(ctx context.Context, jobID int64, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, ImageKey(jobID), data, ttl).Err()
}

func (c *RedisCache) GetImage(ctx context.Context, jobID int64) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, ImageKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) DeleteImage(ctx context.Context, jobID int64) error {
	return c.client.Del(ctx, ImageKey(jobID)).Err()
}

func (c *RedisCache) SetDedup(ctx context.Context, sha256Hex string, jobID int64, ttl time.Duration) error {
	return c.client.Set(ctx, DedupKey(sha256Hex), jobID, ttl).Err()
}

func (c *RedisCache) GetDedup(ctx context.Context, sha256Hex string) (int64, bool, error) {
	val, err := c.client.Get(ctx, DedupKey(sha256Hex)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// IncrWithExpiry atomically increments key and (re)sets its TTL in a single
// pipeline — used for the per-job retry counter.
func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) DeleteRetryCounter(ctx context.Context, jobID int64) error {
	return c.client.Del(ctx, RetryKey(jobID)).Err()
}
