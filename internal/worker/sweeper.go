package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// Sweeper reconciles durable job state with queue state, reclaiming jobs
// that were promoted or created but never progressed.
type Sweeper struct {
	store store.Store
	cache cache.Cache
	queue queue.Queue
	cfg   Config

	stuckInProgress time.Duration
	stuckQueued     time.Duration
}

func NewSweeper(s store.Store, c cache.Cache, q queue.Queue, cfg Config, stuckInProgress, stuckQueued time.Duration) *Sweeper {
	return &Sweeper{store: s, cache: c, queue: q, cfg: cfg, stuckInProgress: stuckInProgress, stuckQueued: stuckQueued}
}

// Sweep runs both recovery scans once. Stuck IN_PROGRESS jobs count the
// recovery as a retry attempt; stuck QUEUED jobs do not, since they were
// never actually attempted.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if err := s.sweepStuckInProgress(ctx); err != nil {
		return fmt.Errorf("sweep stuck in-progress: %w", err)
	}
	if err := s.sweepStuckQueued(ctx); err != nil {
		return fmt.Errorf("sweep stuck queued: %w", err)
	}
	return nil
}

func (s *Sweeper) sweepStuckInProgress(ctx context.Context) error {
	cutoff := time.Now().Add(-s.stuckInProgress)
	jobs, err := s.store.FindStuckInProgress(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		count, err := s.cache.IncrWithExpiry(ctx, cache.RetryKey(job.ID), s.cfg.RetryTTL)
		if err != nil {
			slog.Error("sweeper incr retry failed", "job_id", job.ID, "error", err)
			continue
		}

		if int(count) > s.cfg.MaxRetries {
			if err := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed); err != nil {
				slog.Error("sweeper mark failed failed", "job_id", job.ID, "error", err)
				continue
			}
			if err := s.queue.PushDLQ(ctx, job.ID); err != nil {
				slog.Error("sweeper push dlq failed", "job_id", job.ID, "error", err)
				continue
			}
			if err := s.cache.DeleteRetryCounter(ctx, job.ID); err != nil {
				slog.Error("sweeper delete retry counter failed", "job_id", job.ID, "error", err)
			}
			slog.Info("sweeper moved stuck job to dlq", "job_id", job.ID, "retry_count", count)
			continue
		}

		if err := s.store.UpdateJobStatus(ctx, job.ID, models.JobStatusQueued); err != nil {
			slog.Error("sweeper requeue status update failed", "job_id", job.ID, "error", err)
			continue
		}
		if err := s.queue.Enqueue(ctx, job.ID); err != nil {
			slog.Error("sweeper enqueue failed", "job_id", job.ID, "error", err)
			continue
		}
		slog.Info("sweeper recovered stuck in-progress job", "job_id", job.ID, "retry_count", count)
	}
	return nil
}

func (s *Sweeper) sweepStuckQueued(ctx context.Context) error {
	cutoff := time.Now().Add(-s.stuckQueued)
	jobs, err := s.store.FindStuckQueued(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := s.queue.Enqueue(ctx, job.ID); err != nil {
			slog.Error("sweeper requeue lost enqueue failed", "job_id", job.ID, "error", err)
			continue
		}
		slog.Info("sweeper recovered lost enqueue", "job_id", job.ID)
	}
	return nil
}
