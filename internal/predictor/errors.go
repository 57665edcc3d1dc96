package predictor

import "errors"

var (
	ErrPredictorUnavailable = errors.New("predictor unavailable")
	ErrPredictorTimeout     = errors.New("predictor inference timeout")
	ErrInvalidResponse      = errors.New("predictor returned invalid response")
)
