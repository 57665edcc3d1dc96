package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// HTTPPredictor implements models.Predictor against an external serving
// process over HTTP — the classifier itself stays out of process (and out
// of scope), reached only through this client.
type HTTPPredictor struct {
	baseURL string
	name    string
	client  *http.Client
}

// NewHTTPPredictor creates a predictor client for the serving process at
// baseURL, identified by name (e.g. "densenet121-res224-all"). Deadlines
// come solely from the context passed to PredictBatch, which the worker
// scales by batch size — the client itself carries no fixed Timeout, since
// that would impose its own deadline independent of (and shorter than) the
// per-batch one.
func NewHTTPPredictor(baseURL, name string) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: baseURL,
		name:    name,
		client:  &http.Client{},
	}
}

func (p *HTTPPredictor) Name() string { return p.name }

type predictRequest struct {
	Tensors [][]float32 `json:"tensors"`
}

type predictResponse struct {
	Predictions []map[string]float64 `json:"predictions"`
}

func (p *HTTPPredictor) PredictBatch(ctx context.Context, tensors [][]float32) ([]map[string]float64, error) {
	body, err := json.Marshal(predictRequest{Tensors: tensors})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding predict response: %w", err)
	}
	if len(decoded.Predictions) != len(tensors) {
		return nil, fmt.Errorf("%w: expected %d predictions, got %d", ErrInvalidResponse, len(tensors), len(decoded.Predictions))
	}

	return decoded.Predictions, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrPredictorTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrPredictorTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
	}

	return fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
}

// Compile-time check that HTTPPredictor implements models.Predictor.
var _ models.Predictor = (*HTTPPredictor)(nil)
