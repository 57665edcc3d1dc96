package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue using go-redis/v9 list commands.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a new RedisQueue from a Redis URL.
func NewRedisQueue(redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{client: redis.NewClient(opts)}, nil
}

// Close releases the underlying connection pool.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID int64) error {
	return q.client.LPush(ctx, InferenceQueueKey, jobID).Err()
}

// CollectBatch runs a blocking BRPOP for the first job, then loops
// non-blocking RPOPs until either maxSize is reached or windowMS elapses —
// the bounded micro-batch collector every worker iteration uses.
func (q *RedisQueue) CollectBatch(ctx context.Context, brpopTimeout, windowMS time.Duration, maxSize int) ([]int64, error) {
	result, err := q.client.BRPop(ctx, brpopTimeout, InferenceQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("brpop inference queue: %w", err)
	}

	first, err := strconv.ParseInt(result[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", result[1], err)
	}
	batch := []int64{first}

	deadline := time.Now().Add(windowMS)
	for len(batch) < maxSize && time.Now().Before(deadline) {
		val, err := q.client.RPop(ctx, InferenceQueueKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("rpop inference queue: %w", err)
		}
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return batch, fmt.Errorf("parse job id %q: %w", val, err)
		}
		batch = append(batch, id)
	}
	return batch, nil
}

func (q *RedisQueue) PushDLQ(ctx context.Context, jobID int64) error {
	return q.client.LPush(ctx, DLQKey, jobID).Err()
}

func (q *RedisQueue) DLQLen(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, DLQKey).Result()
}

func (q *RedisQueue) DLQRange(ctx context.Context, start, stop int64) ([]int64, error) {
	vals, err := q.client.LRange(ctx, DLQKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange dlq: %w", err)
	}
	ids := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse dlq job id %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RequeueFromDLQ removes one occurrence of jobID from the DLQ and pushes it
// back onto the inference queue, for operator-triggered manual retry.
func (q *RedisQueue) RequeueFromDLQ(ctx context.Context, jobID int64) error {
	removed, err := q.client.LRem(ctx, DLQKey, 1, jobID).Result()
	if err != nil {
		return fmt.Errorf("lrem dlq: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("job %d not found in dlq", jobID)
	}
	return q.Enqueue(ctx, jobID)
}
