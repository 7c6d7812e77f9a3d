// internal/results/types.go
// Package results holds the outcome of a suite run as it is reported and
// persisted.
package results

import (
	"time"

	"github.com/xkilldash9x/applyflow/internal/action"
)

// Status of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Tags     []string        `json:"tags"`
	Status   Status          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Started  time.Time       `json:"started"`
	Duration time.Duration   `json:"duration_ns"`
	Records  []action.Record `json:"records,omitempty"`
}

// Run groups the scenarios executed by one invocation.
type Run struct {
	ID       string           `json:"run_id"`
	Suite    string           `json:"suite"`
	Driver   string           `json:"driver"`
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
	Results  []ScenarioResult `json:"results"`
}
