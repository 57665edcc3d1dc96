package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xxjiinn/medical-inference-platform/internal/api/response"
	"github.com/xxjiinn/medical-inference-platform/internal/submission"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

const maxImageBytes = 32 << 20 // 32 MiB

// JobService is the interface the job handlers depend on.
type JobService interface {
	Submit(ctx context.Context, image []byte, modelName string) (jobID int64, cached bool, err error)
	GetStatus(ctx context.Context, jobID int64) (*models.Job, error)
	GetResult(ctx context.Context, jobID int64) (*models.Result, error)
}

// compile-time check that submission.Service satisfies JobService.
var _ JobService = (*submission.Service)(nil)

type jobResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type submitResponse struct {
	JobID int64 `json:"job_id"`
}

type resultResponse struct {
	JobID    int64              `json:"job_id"`
	Output   map[string]float64 `json:"output"`
	TopLabel string             `json:"top_label"`
}

// NewSubmitJobHandler returns an http.HandlerFunc for POST /v1/jobs.
func NewSubmitJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart form", nil)
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "image field is required", nil)
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to read image", nil)
			return
		}

		modelName := r.FormValue("model")

		jobID, cached, err := svc.Submit(r.Context(), image, modelName)
		if err != nil {
			writeSubmitError(w, err)
			return
		}

		if cached {
			response.JSON(w, submitResponse{JobID: jobID})
			return
		}
		response.Created(w, submitResponse{JobID: jobID})
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, submission.ErrInvalidImage):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "image is empty or invalid", nil)
	case errors.Is(err, submission.ErrUnknownModel):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /v1/jobs/{id}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseJobID(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid job id", nil)
			return
		}

		job, err := svc.GetStatus(r.Context(), id)
		if err != nil {
			if errors.Is(err, submission.ErrJobNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.JSON(w, jobResponse{
			ID:        job.ID,
			Status:    string(job.Status),
			CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// NewGetResultHandler returns an http.HandlerFunc for GET /v1/jobs/{id}/result.
func NewGetResultHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseJobID(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid job id", nil)
			return
		}

		result, err := svc.GetResult(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, submission.ErrJobNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "job not found", nil)
			case errors.Is(err, submission.ErrResultNotReady):
				response.Error(w, http.StatusConflict, "NOT_READY", "job has not completed", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, resultResponse{
			JobID:    result.JobID,
			Output:   result.Output,
			TopLabel: result.TopLabel,
		})
	}
}

func parseJobID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse job id %q: %w", raw, err)
	}
	return id, nil
}
