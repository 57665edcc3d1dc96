package worker_test

import (
	"context"
	"sync"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
	"github.com/google/uuid"
)

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[int64]*models.Job
	results map[int64]*models.Result
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[int64]*models.Job), results: make(map[int64]*models.Result)}
}

func (f *fakeStore) addJob(id int64, status models.JobStatus, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id] = &models.Job{ID: id, Status: status, CreatedAt: updatedAt, UpdatedAt: updatedAt, ModelVersionID: uuid.New()}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) GetDefaultModelVersion(ctx context.Context) (*models.ModelVersion, error) {
	return &models.ModelVersion{ID: uuid.New(), Name: "densenet121-res224-all"}, nil
}

func (f *fakeStore) GetModelVersion(ctx context.Context, id uuid.UUID) (*models.ModelVersion, error) {
	return &models.ModelVersion{ID: id}, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = int64(len(f.jobs) + 1)
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return job, nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) PromoteQueuedToInProgress(ctx context.Context, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var promoted []int64
	for _, id := range ids {
		job, ok := f.jobs[id]
		if !ok {
			continue
		}
		if job.Status != models.JobStatusQueued && job.Status != models.JobStatusInProgress {
			continue
		}
		job.Status = models.JobStatusInProgress
		job.UpdatedAt = time.Now()
		promoted = append(promoted, id)
	}
	return promoted, nil
}

func (f *fakeStore) ResetToQueued(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = models.JobStatusQueued
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) FindStuckInProgress(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Job
	for _, job := range f.jobs {
		if job.Status == models.JobStatusInProgress && job.UpdatedAt.Before(olderThan) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeStore) FindStuckQueued(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Job
	for _, job := range f.jobs {
		if job.Status == models.JobStatusQueued && job.UpdatedAt.Before(olderThan) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateResult(ctx context.Context, result *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[result.JobID] = result
	return nil
}

func (f *fakeStore) GetResultByJobID(ctx context.Context, jobID int64) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return result, nil
}

func (f *fakeStore) CountJobsCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) CountJobsByStatusSince(ctx context.Context, status models.JobStatus, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) JobLatenciesSince(ctx context.Context, since time.Time) ([]time.Duration, error) {
	return nil, nil
}

type fakeCache struct {
	mu     sync.Mutex
	images map[int64][]byte
	retry  map[int64]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{images: make(map[int64][]byte), retry: make(map[int64]int64)}
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

func (f *fakeCache) SetImage(ctx context.Context, jobID int64, data []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[jobID] = data
	return nil
}

func (f *fakeCache) GetImage(ctx context.Context, jobID int64) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.images[jobID]
	return data, ok, nil
}

func (f *fakeCache) DeleteImage(ctx context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, jobID)
	return nil
}

func (f *fakeCache) SetDedup(ctx context.Context, sha256Hex string, jobID int64, ttl time.Duration) error {
	return nil
}

func (f *fakeCache) GetDedup(ctx context.Context, sha256Hex string) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := parseTrailingInt(key)
	f.retry[id]++
	return f.retry[id], nil
}

func (f *fakeCache) DeleteRetryCounter(ctx context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.retry, jobID)
	return nil
}

// parseTrailingInt extracts the job id embedded in a "retry:{id}" key so
// the fake can track counters per job without a full key parser.
func parseTrailingInt(key string) int64 {
	start := len(key)
	for start > 0 && key[start-1] >= '0' && key[start-1] <= '9' {
		start--
	}
	digits := key[start:]
	var n int64
	for _, c := range digits {
		n = n*10 + int64(c-'0')
	}
	return n
}

type fakeQueue struct {
	mu       sync.Mutex
	pending  []int64
	dlq      []int64
	enqueued []int64
}

func (f *fakeQueue) Ping(ctx context.Context) error { return nil }

func (f *fakeQueue) Enqueue(ctx context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, jobID)
	f.enqueued = append(f.enqueued, jobID)
	return nil
}

func (f *fakeQueue) CollectBatch(ctx context.Context, brpopTimeout, windowMS time.Duration, maxSize int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	n := len(f.pending)
	if n > maxSize {
		n = maxSize
	}
	batch := f.pending[:n]
	f.pending = f.pending[n:]
	return batch, nil
}

func (f *fakeQueue) PushDLQ(ctx context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlq = append(f.dlq, jobID)
	return nil
}

func (f *fakeQueue) DLQLen(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.dlq)), nil
}

func (f *fakeQueue) DLQRange(ctx context.Context, start, stop int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dlq, nil
}

func (f *fakeQueue) RequeueFromDLQ(ctx context.Context, jobID int64) error {
	return nil
}
