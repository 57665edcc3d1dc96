package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the state of an InferenceJob: QUEUED -> IN_PROGRESS ->
// COMPLETED|FAILED. No automatic transition leaves a terminal state; the
// only exception is the operator DLQ requeue (store ResetToQueued), which
// moves a FAILED job back to QUEUED.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job tracks one chest X-ray inference request. The Redis queue only ever
// carries a job id; this row is the single source of truth for state.
// A client polls GET /v1/jobs/{id} until Status is COMPLETED or FAILED.
type Job struct {
	ID             int64
	Status         JobStatus
	InputSHA256    string
	ModelVersionID uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
