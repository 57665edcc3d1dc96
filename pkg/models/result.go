package models

import "time"

// Result is the terminal output of a COMPLETED Job. Created at most once
// per job; never updated. JobID is the primary key — one-to-one with Job.
type Result struct {
	JobID     int64
	Output    map[string]float64
	TopLabel  string
	CreatedAt time.Time
}

// TopLabel returns the highest-scoring pathology in output. Ties resolve to
// whichever label sorts first in PathologyLabels, so the result is
// deterministic regardless of map iteration order.
func TopLabel(output map[string]float64) string {
	best := ""
	bestScore := 0.0
	first := true
	for _, label := range PathologyLabels {
		score, ok := output[label]
		if !ok {
			continue
		}
		if first || score > bestScore {
			best = label
			bestScore = score
			first = false
		}
	}
	return best
}
