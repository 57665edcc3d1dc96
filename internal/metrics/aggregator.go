// Package metrics computes the point-in-time operational view: throughput,
// failure rate, end-to-end latency percentiles, and DLQ depth.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

const windowSeconds = 300

// Snapshot is the metrics view served by /v1/ops/metrics.
type Snapshot struct {
	WindowMinutes   float64 `json:"window_minutes"`
	RPS             float64 `json:"rps"`
	FailureRate     float64 `json:"failure_rate"`
	P50Ms           float64 `json:"p50_ms"`
	P95Ms           float64 `json:"p95_ms"`
	P99Ms           float64 `json:"p99_ms"`
	DLQDepth        int64   `json:"dlq_depth"`
	TotalRequests   int     `json:"total_requests"`
	SuccessRequests int     `json:"success_requests"`
	FailedRequests  int     `json:"failed_requests"`
}

// Aggregator computes a Snapshot over the trailing windowSeconds window.
type Aggregator struct {
	store store.Store
	queue queue.Queue
}

func NewAggregator(s store.Store, q queue.Queue) *Aggregator {
	return &Aggregator{store: s, queue: q}
}

// Now is overridable in tests; production callers leave it at its default,
// time.Now.
var Now = time.Now

func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	since := Now().Add(-windowSeconds * time.Second)

	total, err := a.store.CountJobsCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count jobs created since: %w", err)
	}

	completed, err := a.store.CountJobsByStatusSince(ctx, models.JobStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("count completed since: %w", err)
	}
	failed, err := a.store.CountJobsByStatusSince(ctx, models.JobStatusFailed, since)
	if err != nil {
		return nil, fmt.Errorf("count failed since: %w", err)
	}

	var failureRate float64
	if terminal := completed + failed; terminal > 0 {
		failureRate = float64(failed) / float64(terminal)
	}

	latencies, err := a.store.JobLatenciesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("job latencies since: %w", err)
	}
	p50, p95, p99 := percentilesMs(latencies)

	dlqDepth, err := a.queue.DLQLen(ctx)
	if err != nil {
		return nil, fmt.Errorf("dlq len: %w", err)
	}

	return &Snapshot{
		WindowMinutes:   windowSeconds / 60.0,
		RPS:             float64(total) / windowSeconds,
		FailureRate:     failureRate,
		P50Ms:           p50,
		P95Ms:           p95,
		P99Ms:           p99,
		DLQDepth:        dlqDepth,
		TotalRequests:   total,
		SuccessRequests: completed,
		FailedRequests:  failed,
	}, nil
}

// percentilesMs returns p50, p95, p99 of samples in milliseconds, computed
// from the raw samples rather than a pre-aggregated summary. An empty
// input yields all zeros.
func percentilesMs(samples []time.Duration) (p50, p95, p99 float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	ms := make([]float64, len(samples))
	for i, d := range samples {
		ms[i] = float64(d.Microseconds()) / 1000.0
	}
	sort.Float64s(ms)

	return percentile(ms, 0.50), percentile(ms, 0.95), percentile(ms, 0.99)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
