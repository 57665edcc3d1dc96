package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/metrics"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	total     int
	completed int
	failed    int
	latencies []time.Duration
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) GetDefaultModelVersion(ctx context.Context) (*models.ModelVersion, error) {
	return nil, nil
}

func (f *fakeStore) GetModelVersion(ctx context.Context, id uuid.UUID) (*models.ModelVersion, error) {
	return nil, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *models.Job) error { return nil }

func (f *fakeStore) GetJob(ctx context.Context, id int64) (*models.Job, error) { return nil, nil }

func (f *fakeStore) UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error {
	return nil
}

func (f *fakeStore) PromoteQueuedToInProgress(ctx context.Context, ids []int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeStore) ResetToQueued(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) FindStuckInProgress(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	return nil, nil
}

func (f *fakeStore) FindStuckQueued(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	return nil, nil
}

func (f *fakeStore) CreateResult(ctx context.Context, result *models.Result) error { return nil }

func (f *fakeStore) GetResultByJobID(ctx context.Context, jobID int64) (*models.Result, error) {
	return nil, nil
}

func (f *fakeStore) CountJobsCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return f.total, nil
}

func (f *fakeStore) CountJobsByStatusSince(ctx context.Context, status models.JobStatus, since time.Time) (int, error) {
	switch status {
	case models.JobStatusCompleted:
		return f.completed, nil
	case models.JobStatusFailed:
		return f.failed, nil
	}
	return 0, nil
}

func (f *fakeStore) JobLatenciesSince(ctx context.Context, since time.Time) ([]time.Duration, error) {
	return f.latencies, nil
}

type fakeQueue struct {
	depth int64
}

func (f *fakeQueue) Ping(ctx context.Context) error                 { return nil }
func (f *fakeQueue) Enqueue(ctx context.Context, jobID int64) error { return nil }
func (f *fakeQueue) CollectBatch(ctx context.Context, brpopTimeout, windowMS time.Duration, maxSize int) ([]int64, error) {
	return nil, nil
}
func (f *fakeQueue) PushDLQ(ctx context.Context, jobID int64) error { return nil }
func (f *fakeQueue) DLQLen(ctx context.Context) (int64, error)     { return f.depth, nil }
func (f *fakeQueue) DLQRange(ctx context.Context, start, stop int64) ([]int64, error) {
	return nil, nil
}
func (f *fakeQueue) RequeueFromDLQ(ctx context.Context, jobID int64) error { return nil }

func TestSnapshot_ComputesFailureRateAndPercentiles(t *testing.T) {
	var samples []time.Duration
	for i := 1; i <= 100; i++ {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}

	s := &fakeStore{total: 100, completed: 80, failed: 20, latencies: samples}
	q := &fakeQueue{depth: 5}

	agg := metrics.NewAggregator(s, q)
	snap, err := agg.Snapshot(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.2, snap.FailureRate, 0.001)
	assert.Equal(t, int64(5), snap.DLQDepth)
	assert.InDelta(t, 50.0, snap.P50Ms, 1.0)
	assert.InDelta(t, 95.0, snap.P95Ms, 1.0)
	assert.InDelta(t, 99.0, snap.P99Ms, 1.0)
	assert.InDelta(t, float64(100)/300.0, snap.RPS, 0.0001)
	assert.Equal(t, 100, snap.TotalRequests)
	assert.Equal(t, 80, snap.SuccessRequests)
	assert.Equal(t, 20, snap.FailedRequests)
}

func TestSnapshot_EmptyWindow(t *testing.T) {
	s := &fakeStore{}
	q := &fakeQueue{}

	agg := metrics.NewAggregator(s, q)
	snap, err := agg.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.FailureRate)
	assert.Zero(t, snap.P50Ms)
	assert.Zero(t, snap.RPS)
	assert.Zero(t, snap.DLQDepth)
}

func TestSnapshot_NoTerminalJobsHasZeroFailureRate(t *testing.T) {
	s := &fakeStore{total: 10, completed: 0, failed: 0}
	q := &fakeQueue{}

	agg := metrics.NewAggregator(s, q)
	snap, err := agg.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.FailureRate)
	assert.InDelta(t, float64(10)/300.0, snap.RPS, 0.0001)
}
