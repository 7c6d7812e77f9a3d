// internal/results/summary.go
package results

import (
	"fmt"
	"time"
)

// Summary counts results by status.
type Summary struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// Summarize aggregates r.
func (r *Run) Summarize() Summary {
	s := Summary{Total: len(r.Results), Duration: r.Finished.Sub(r.Started)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// OK reports whether no scenario failed.
func (r *Run) OK() bool {
	return r.Summarize().Failed == 0
}

// String renders the one-line summary printed at the end of a run.
func (s Summary) String() string {
	return fmt.Sprintf("%d scenarios: %d passed, %d failed, %d skipped in %s",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
}
