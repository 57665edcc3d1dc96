// Package worker implements the worker pool: the batch collector, the
// predict-and-persist loop, retry/DLQ handling, and the recovery sweeper.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// Config holds the tunables a single worker's main loop needs.
type Config struct {
	BRPOPTimeout     time.Duration
	BatchWindow      time.Duration
	MaxBatchSize     int
	InferenceTimeout time.Duration
	MaxRetries       int
	RetryTTL         time.Duration
}

// Worker runs the main loop: collect a micro-batch, promote it to
// IN_PROGRESS, preprocess, predict, persist, and route failures through
// the retry path. One Worker holds one Predictor client handle.
type Worker struct {
	id           string
	store        store.Store
	cache        cache.Cache
	queue        queue.Queue
	predictor    models.Predictor
	preprocessor models.Preprocessor
	cfg          Config
}

func New(id string, s store.Store, c cache.Cache, q queue.Queue, p models.Predictor, pre models.Preprocessor, cfg Config) *Worker {
	return &Worker{id: id, store: s, cache: c, queue: q, predictor: p, preprocessor: pre, cfg: cfg}
}

// Run blocks, repeatedly calling RunOnce, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("worker cycle failed", "worker_id", w.id, "error", err)
		}
	}
}

// RunOnce executes exactly one batch-collect-predict-persist cycle. A
// cycle with nothing to do (BRPOP timeout, empty queue) returns nil with
// no side effects.
func (w *Worker) RunOnce(ctx context.Context) error {
	batch, err := w.queue.CollectBatch(ctx, w.cfg.BRPOPTimeout, w.cfg.BatchWindow, w.cfg.MaxBatchSize)
	if err != nil {
		return fmt.Errorf("collect batch: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	promoted, err := w.store.PromoteQueuedToInProgress(ctx, batch)
	if err != nil {
		return fmt.Errorf("promote batch: %w", err)
	}
	if len(promoted) == 0 {
		return nil
	}

	type item struct {
		jobID  int64
		tensor []float32
	}
	var items []item
	failures := make(map[int64]error)

	for _, id := range promoted {
		image, ok, err := w.cache.GetImage(ctx, id)
		if err != nil {
			return fmt.Errorf("get image %d: %w", id, err)
		}
		if !ok {
			failures[id] = ErrImageMissing
			continue
		}

		tensor, err := w.preprocessor.Preprocess(image)
		if err != nil {
			failures[id] = fmt.Errorf("%w: %v", ErrPreprocessFailed, err)
			continue
		}
		items = append(items, item{jobID: id, tensor: tensor})
	}

	if len(items) > 0 {
		tensors := make([][]float32, len(items))
		for i, it := range items {
			tensors[i] = it.tensor
		}

		deadline := w.cfg.InferenceTimeout * time.Duration(len(items))
		predictCtx, cancel := context.WithTimeout(ctx, deadline)
		predictions, err := w.predictor.PredictBatch(predictCtx, tensors)
		cancel()

		if err != nil {
			reason := ErrInferenceError
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(predictCtx.Err(), context.DeadlineExceeded) {
				reason = ErrInferenceTimeout
			}
			for _, it := range items {
				failures[it.jobID] = fmt.Errorf("%w: %v", reason, err)
			}
		} else {
			for i, it := range items {
				result := &models.Result{
					JobID:     it.jobID,
					Output:    predictions[i],
					TopLabel:  models.TopLabel(predictions[i]),
					CreatedAt: time.Now(),
				}
				if err := w.store.CreateResult(ctx, result); err != nil {
					failures[it.jobID] = fmt.Errorf("%w: %v", ErrInferenceError, err)
					continue
				}
				if err := w.store.UpdateJobStatus(ctx, it.jobID, models.JobStatusCompleted); err != nil {
					slog.Error("mark completed failed", "worker_id", w.id, "job_id", it.jobID, "error", err)
				}
			}
		}
	}

	for id, reason := range failures {
		if err := w.handleFailure(ctx, id, reason); err != nil {
			slog.Error("handle failure failed", "worker_id", w.id, "job_id", id, "error", err)
		}
	}

	return nil
}

// handleFailure bumps the job's retry counter and either requeues it or,
// past MaxRetries, transitions it to FAILED and pushes it to the DLQ.
func (w *Worker) handleFailure(ctx context.Context, jobID int64, reason error) error {
	slog.Warn("job failed", "worker_id", w.id, "job_id", jobID, "reason", reason)

	retryKey := cache.RetryKey(jobID)
	count, err := w.cache.IncrWithExpiry(ctx, retryKey, w.cfg.RetryTTL)
	if err != nil {
		return fmt.Errorf("incr retry counter: %w", err)
	}

	if int(count) <= w.cfg.MaxRetries {
		if err := w.queue.Enqueue(ctx, jobID); err != nil {
			return fmt.Errorf("requeue job: %w", err)
		}
		return nil
	}

	if err := w.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if err := w.queue.PushDLQ(ctx, jobID); err != nil {
		return fmt.Errorf("push dlq: %w", err)
	}
	if err := w.cache.DeleteRetryCounter(ctx, jobID); err != nil {
		return fmt.Errorf("delete retry counter: %w", err)
	}
	return nil
}
