package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/api/response"
	"github.com/xxjiinn/medical-inference-platform/internal/metrics"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// MetricsProvider is the interface the metrics handler depends on.
type MetricsProvider interface {
	Snapshot(ctx context.Context) (*metrics.Snapshot, error)
}

// NewMetricsHandler returns an http.HandlerFunc for GET /v1/ops/metrics.
func NewMetricsHandler(m MetricsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := m.Snapshot(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, snap)
	}
}

// DLQLister is the interface the DLQ handler depends on for listing the job
// ids in the dead-letter queue.
type DLQLister interface {
	DLQRange(ctx context.Context, start, stop int64) ([]int64, error)
}

// DLQJobLookup resolves each dead-lettered job id to the fields the
// response needs.
type DLQJobLookup interface {
	GetJob(ctx context.Context, id int64) (*models.Job, error)
}

type dlqEntry struct {
	ID          int64  `json:"id"`
	InputSHA256 string `json:"input_sha256"`
	UpdatedAt   string `json:"updated_at"`
}

// NewDLQHandler returns an http.HandlerFunc for GET /v1/ops/dlq. It lists
// the full dead-letter queue, most recently dead-lettered first, resolving each job id against
// the store so the client sees what actually failed, not just an id.
func NewDLQHandler(q DLQLister, jobs DLQJobLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := q.DLQRange(r.Context(), 0, -1)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		entries := make([]dlqEntry, 0, len(ids))
		for _, id := range ids {
			job, err := jobs.GetJob(r.Context(), id)
			if err != nil {
				continue
			}
			entries = append(entries, dlqEntry{
				ID:          job.ID,
				InputSHA256: job.InputSHA256,
				UpdatedAt:   job.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		response.JSON(w, entries)
	}
}

// Pinger checks liveness of one backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthBody struct {
	DB    string `json:"db"`
	Queue string `json:"queue"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /v1/ops/health. It
// pings the store and queue independently so a caller can tell which
// dependency is down.
func NewHealthHandler(db, queue Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbErr := db.Ping(r.Context())
		queueErr := queue.Ping(r.Context())

		body := healthBody{DB: "ok", Queue: "ok"}
		status := http.StatusOK
		if dbErr != nil {
			body.DB = "down"
			status = http.StatusServiceUnavailable
		}
		if queueErr != nil {
			body.Queue = "down"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(struct {
			Data healthBody `json:"data"`
		}{Data: body})
	}
}
