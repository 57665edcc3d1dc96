package worker

import "errors"

var (
	ErrImageMissing     = errors.New("image missing from blob store")
	ErrPreprocessFailed = errors.New("preprocess failed")
	ErrInferenceTimeout = errors.New("inference timeout")
	ErrInferenceError   = errors.New("inference error")
	ErrRetriesExhausted = errors.New("retries exhausted")
)
