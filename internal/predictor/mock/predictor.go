package mock

import (
	"context"

	"github.com/xxjiinn/medical-inference-platform/internal/predictor"
	"github.com/xxjiinn/medical-inference-platform/pkg/models"
)

// MockPredictor satisfies models.Predictor for testing.
type MockPredictor struct {
	Name_            string
	PredictBatchFunc func(ctx context.Context, tensors [][]float32) ([]map[string]float64, error)
}

func (m *MockPredictor) Name() string { return m.Name_ }

func (m *MockPredictor) PredictBatch(ctx context.Context, tensors [][]float32) ([]map[string]float64, error) {
	if m.PredictBatchFunc != nil {
		return m.PredictBatchFunc(ctx, tensors)
	}
	return nil, nil
}

// NewMockPredictor returns a MockPredictor that produces a uniform,
// low-confidence score for every pathology label on every tensor.
func NewMockPredictor() *MockPredictor {
	return &MockPredictor{
		Name_: "mock",
		PredictBatchFunc: func(_ context.Context, tensors [][]float32) ([]map[string]float64, error) {
			out := make([]map[string]float64, len(tensors))
			for i := range tensors {
				scores := make(map[string]float64, len(models.PathologyLabels))
				for _, label := range models.PathologyLabels {
					scores[label] = 0.1
				}
				out[i] = scores
			}
			return out, nil
		},
	}
}

// NewFailingPredictor returns a MockPredictor that always returns err.
func NewFailingPredictor(err error) *MockPredictor {
	return &MockPredictor{
		Name_: "mock-failing",
		PredictBatchFunc: func(_ context.Context, _ [][]float32) ([]map[string]float64, error) {
			return nil, err
		},
	}
}

// NewTimeoutPredictor returns a MockPredictor that blocks until the context
// is cancelled, then returns ErrPredictorTimeout.
func NewTimeoutPredictor() *MockPredictor {
	return &MockPredictor{
		Name_: "mock-timeout",
		PredictBatchFunc: func(ctx context.Context, _ [][]float32) ([]map[string]float64, error) {
			<-ctx.Done()
			return nil, predictor.ErrPredictorTimeout
		},
	}
}

// Compile-time check that MockPredictor implements models.Predictor.
var _ models.Predictor = (*MockPredictor)(nil)
