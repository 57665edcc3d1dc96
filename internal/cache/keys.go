package cache

import "fmt"

// DedupKey caches a content hash -> existing job ID mapping, so a
// resubmitted image returns the original Job instead of re-enqueueing.
func DedupKey(sha256Hex string) string {
	return fmt.Sprintf("cache:sha256:%s", sha256Hex)
}

// ImageKey holds the raw image bytes for a Job, read back by the worker
// that claims it.
func ImageKey(jobID int64) string {
	return fmt.Sprintf("image:%d", jobID)
}

// RetryKey holds the retry counter for a Job, bumped on every stuck or
// failed recovery attempt.
func RetryKey(jobID int64) string {
	return fmt.Sprintf("retry:%d", jobID)
}
