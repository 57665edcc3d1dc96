package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetDefaultModelVersion(ctx context.Context) (*models.ModelVersion, error)
	GetModelVersion(ctx context.Context, id uuid.UUID) (*models.ModelVersion, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error
	PromoteQueuedToInProgress(ctx context.Context, ids []int64) ([]int64, error)
	// ResetToQueued unconditionally moves a job back to QUEUED, bypassing
	// the normal state-machine guard. It exists for operator-triggered DLQ
	// recovery (workerctl dlq requeue), which deliberately overrides the
	// FAILED terminal state rather than resuming through it.
	ResetToQueued(ctx context.Context, id int64) error

	FindStuckInProgress(ctx context.Context, olderThan time.Time) ([]*models.Job, error)
	FindStuckQueued(ctx context.Context, olderThan time.Time) ([]*models.Job, error)

	CreateResult(ctx context.Context, result *models.Result) error
	GetResultByJobID(ctx context.Context, jobID int64) (*models.Result, error)

	CountJobsCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountJobsByStatusSince(ctx context.Context, status models.JobStatus, since time.Time) (int, error)
	JobLatenciesSince(ctx context.Context, since time.Time) ([]time.Duration, error)
}
