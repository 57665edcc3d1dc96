package queue

import (
	"context"
	"time"
)

const (
	// InferenceQueueKey is the Redis list workers BRPOP job IDs from.
	InferenceQueueKey = "queue:inference"
	// DLQKey is the Redis list exhausted jobs are pushed onto.
	DLQKey = "dlq:failed_jobs"
)

// Queue is the Blob & Queue Store's list surface: the inference work queue
// and the dead-letter queue. Job IDs are pushed/popped as decimal strings.
type Queue interface {
	Ping(ctx context.Context) error

	Enqueue(ctx context.Context, jobID int64) error

	// CollectBatch blocks up to brpopTimeout for the first job, then drains
	// up to maxSize-1 additional jobs non-blockingly for up to windowMS —
	// the micro-batch collection loop the worker pool runs every iteration.
	// Returns an empty slice (no error) on a timed-out BRPOP with nothing
	// queued.
	CollectBatch(ctx context.Context, brpopTimeout, windowMS time.Duration, maxSize int) ([]int64, error)

	PushDLQ(ctx context.Context, jobID int64) error
	DLQLen(ctx context.Context) (int64, error)
	DLQRange(ctx context.Context, start, stop int64) ([]int64, error)
	RequeueFromDLQ(ctx context.Context, jobID int64) error
}
