// Package submission implements the write path: dedup, job creation, and
// the status/result reads the HTTP layer serves.
package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

var ErrUnknownModel = errors.New("unknown model version")

// Service implements the Submission Service: dedup against the cache,
// job creation in the durable store, and publishing to the queue.
type Service struct {
	store    store.Store
	cache    cache.Cache
	queue    queue.Queue
	imageTTL time.Duration
	dedupTTL time.Duration
}

func NewService(s store.Store, c cache.Cache, q queue.Queue, imageTTL, dedupTTL time.Duration) *Service {
	return &Service{store: s, cache: c, queue: q, imageTTL: imageTTL, dedupTTL: dedupTTL}
}

// Submit computes the content fingerprint, probes the dedup cache, and
// either returns the previously created job id or creates a new Job,
// stores the image blob, and enqueues it for the worker pool.
func (s *Service) Submit(ctx context.Context, image []byte, modelName string) (jobID int64, cached bool, err error) {
	if len(image) == 0 {
		return 0, false, ErrInvalidImage
	}

	sum := sha256.Sum256(image)
	hexSum := hex.EncodeToString(sum[:])

	if existing, ok, err := s.cache.GetDedup(ctx, hexSum); err != nil {
		return 0, false, fmt.Errorf("probe dedup cache: %w", err)
	} else if ok {
		if _, err := s.store.GetJob(ctx, existing); err == nil {
			return existing, true, nil
		}
		// Cached job id no longer exists in the durable store; fall
		// through and create a new job, same as a cache miss.
	}

	modelVersion, err := s.resolveModelVersion(ctx, modelName)
	if err != nil {
		return 0, false, err
	}

	job := &models.Job{
		Status:         models.JobStatusQueued,
		InputSHA256:    hexSum,
		ModelVersionID: modelVersion.ID,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return 0, false, fmt.Errorf("create job: %w", err)
	}

	if err := s.cache.SetImage(ctx, job.ID, image, s.imageTTL); err != nil {
		return 0, false, fmt.Errorf("store image blob: %w", err)
	}
	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		return 0, false, fmt.Errorf("enqueue job: %w", err)
	}
	if err := s.cache.SetDedup(ctx, hexSum, job.ID, s.dedupTTL); err != nil {
		return 0, false, fmt.Errorf("set dedup cache: %w", err)
	}

	return job.ID, false, nil
}

func (s *Service) resolveModelVersion(ctx context.Context, modelName string) (*models.ModelVersion, error) {
	mv, err := s.store.GetDefaultModelVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve model version: %w", err)
	}
	if modelName != "" && modelName != mv.Name {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelName)
	}
	return mv, nil
}

// GetStatus returns the current status of a job.
func (s *Service) GetStatus(ctx context.Context, jobID int64) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetResult returns the Result for a COMPLETED job, ErrResultNotReady if
// the job exists but hasn't reached COMPLETED, or ErrJobNotFound.
func (s *Service) GetResult(ctx context.Context, jobID int64) (*models.Result, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.Status != models.JobStatusCompleted {
		return nil, ErrResultNotReady
	}

	result, err := s.store.GetResultByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}
