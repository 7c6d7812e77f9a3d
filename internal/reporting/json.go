// internal/reporting/json.go
package reporting

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/applyflow/internal/results"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the JSON report body.
type Document struct {
	Run     *results.Run    `json:"run"`
	Summary results.Summary `json:"summary"`
}

type JSONReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex
	single
}

func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) Write(run *results.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(run)
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.run != nil {
		enc := json.NewEncoder(r.writer)
		enc.SetIndent("", "  ")
		if werr := enc.Encode(Document{Run: r.run, Summary: r.run.Summarize()}); werr != nil {
			err = fmt.Errorf("failed to write json report: %w", werr)
		}
	}
	if cerr := r.writer.Close(); err == nil {
		err = cerr
	}
	return err
}

// DecodeRun reads a run back from a JSON report.
func DecodeRun(r io.Reader) (*results.Run, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode json report: %w", err)
	}
	if doc.Run == nil {
		return nil, fmt.Errorf("json report has no run")
	}
	return doc.Run, nil
}
