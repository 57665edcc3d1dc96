package models

import "context"

// Predictor is the classifier boundary: a black box that maps a batch of
// preprocessed tensors to a batch of label->score mappings. Its internals
// (model architecture, weights, device placement) are out of scope for this
// module — only this interface is consumed. Implementations must respect
// ctx cancellation; the worker pool calls this under a deadline scaled by
// batch size.
type Predictor interface {
	// PredictBatch runs one forward pass over tensors, a slice of flattened
	// 224x224 single-channel images in model-normalized range. The returned
	// slice has exactly len(tensors) entries, in the same order, each a
	// mapping over every label in PathologyLabels.
	PredictBatch(ctx context.Context, tensors [][]float32) ([]map[string]float64, error)
	// Name identifies the predictor backend, e.g. "densenet121-res224-all".
	Name() string
}
