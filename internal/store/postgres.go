package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Model Versions ---

func (s *PostgresStore) GetDefaultModelVersion(ctx context.Context) (*models.ModelVersion, error) {
	var m models.ModelVersion
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, weights_path, created_at FROM model_versions ORDER BY created_at ASC LIMIT 1`,
	).Scan(&m.ID, &m.Name, &m.WeightsPath, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default model version: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) GetModelVersion(ctx context.Context, id uuid.UUID) (*models.ModelVersion, error) {
	var m models.ModelVersion
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, weights_path, created_at FROM model_versions WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.WeightsPath, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get model version: %w", err)
	}
	return &m, nil
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO inference_jobs (status, input_sha256, model_version_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		job.Status, job.InputSHA256, job.ModelVersionID, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var j models.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, input_sha256, model_version_id, created_at, updated_at
		 FROM inference_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Status, &j.InputSHA256, &j.ModelVersionID, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusQueued:     {models.JobStatusInProgress},
	models.JobStatusInProgress: {models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusQueued},
}

// UpdateJobStatus transitions a single Job, enforcing the state machine:
// QUEUED -> IN_PROGRESS -> COMPLETED|FAILED, with IN_PROGRESS -> QUEUED
// permitted for retry requeue.
func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error {
	var currentStatus models.JobStatus
	err := s.pool.QueryRow(ctx, `SELECT status FROM inference_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	valid := false
	for _, allowed := range validTransitions[currentStatus] {
		if allowed == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE inference_jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, status, currentStatus)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d left status %s concurrently; not moved to %s", id, currentStatus, status)
	}
	return nil
}

// ResetToQueued moves a job straight to QUEUED regardless of its current
// status. Unlike UpdateJobStatus it does not consult validTransitions: an
// operator recovering a job from the DLQ is deliberately overriding the
// FAILED terminal state, not resuming through it.
func (s *PostgresStore) ResetToQueued(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE inference_jobs SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, models.JobStatusQueued)
	if err != nil {
		return fmt.Errorf("reset job to queued: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteQueuedToInProgress atomically promotes a micro-batch of jobs to
// IN_PROGRESS in one statement. The guard accepts both QUEUED (the normal
// case) and IN_PROGRESS (a job retried via requeue while its status stays
// IN_PROGRESS — the promotion on re-pickup must be idempotent on that
// state, not reject it). Jobs that are already COMPLETED or FAILED are
// excluded from the returned slice, which is how a stale id surviving in
// the queue past a terminal transition never gets silently reprocessed.
func (s *PostgresStore) PromoteQueuedToInProgress(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`UPDATE inference_jobs SET status = $2, updated_at = NOW()
		 WHERE id = ANY($1) AND status = ANY($3)
		 RETURNING id`,
		ids, models.JobStatusInProgress, []models.JobStatus{models.JobStatusQueued, models.JobStatusInProgress})
	if err != nil {
		return nil, fmt.Errorf("promote queued to in_progress: %w", err)
	}
	defer rows.Close()

	var promoted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan promoted job id: %w", err)
		}
		promoted = append(promoted, id)
	}
	return promoted, rows.Err()
}

func (s *PostgresStore) FindStuckInProgress(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	return s.findByStatusOlderThan(ctx, models.JobStatusInProgress, olderThan)
}

func (s *PostgresStore) FindStuckQueued(ctx context.Context, olderThan time.Time) ([]*models.Job, error) {
	return s.findByStatusOlderThan(ctx, models.JobStatusQueued, olderThan)
}

func (s *PostgresStore) findByStatusOlderThan(ctx context.Context, status models.JobStatus, olderThan time.Time) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, input_sha256, model_version_id, created_at, updated_at
		 FROM inference_jobs WHERE status = $1 AND updated_at < $2`, status, olderThan)
	if err != nil {
		return nil, fmt.Errorf("find stuck jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Status, &j.InputSHA256, &j.ModelVersionID, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stuck job: %w", err)
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// --- Results ---

func (s *PostgresStore) CreateResult(ctx context.Context, result *models.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO inference_results (job_id, output, top_label, created_at)
		 VALUES ($1, $2, $3, $4)`,
		result.JobID, result.Output, result.TopLabel, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResultByJobID(ctx context.Context, jobID int64) (*models.Result, error) {
	var r models.Result
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, output, top_label, created_at FROM inference_results WHERE job_id = $1`, jobID,
	).Scan(&r.JobID, &r.Output, &r.TopLabel, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result by job: %w", err)
	}
	return &r, nil
}

// --- Metrics ---

func (s *PostgresStore) CountJobsCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inference_jobs WHERE created_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs created since: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountJobsByStatusSince(ctx context.Context, status models.JobStatus, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inference_jobs WHERE status = $1 AND created_at >= $2`, status, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs by status since: %w", err)
	}
	return n, nil
}

// JobLatenciesSince returns job-to-result latencies for every COMPLETED job
// created in the window, as raw samples — percentiles are computed from
// these rather than from a pre-aggregated summary.
func (s *PostgresStore) JobLatenciesSince(ctx context.Context, since time.Time) ([]time.Duration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.created_at - j.created_at
		 FROM inference_results r JOIN inference_jobs j ON j.id = r.job_id
		 WHERE j.created_at >= $1 AND j.status = $2`, since, models.JobStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("job latencies since: %w", err)
	}
	defer rows.Close()

	var latencies []time.Duration
	for rows.Next() {
		var d time.Duration
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan job latency: %w", err)
		}
		latencies = append(latencies, d)
	}
	return latencies, rows.Err()
}
