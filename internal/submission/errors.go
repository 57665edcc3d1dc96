package submission

import "errors"

var (
	// ErrInvalidImage is returned when the submitted bytes are empty or
	// otherwise not acceptable for enqueue.
	ErrInvalidImage = errors.New("invalid image")
	// ErrJobNotFound is returned when a job id has no corresponding row.
	ErrJobNotFound = errors.New("job not found")
	// ErrResultNotReady is returned from GetResult when the job has not
	// yet reached COMPLETED.
	ErrResultNotReady = errors.New("result not ready")
)
