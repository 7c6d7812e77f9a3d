// internal/reporting/reporter.go
// Package reporting renders a finished run as JUnit XML, JSON or text.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/applyflow/internal/results"
)

// Formats accepted by New.
const (
	FormatJUnit = "junit"
	FormatJSON  = "json"
	FormatText  = "text"
)

// Reporter writes a run to an output.
type Reporter interface {
	// Write renders one run. Reporters accept a single run.
	Write(run *results.Run) error
	// Close finalizes the report and closes the underlying writer.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath. An empty path or
// "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var newFn func(io.WriteCloser) Reporter
	switch format {
	case FormatJUnit:
		newFn = func(w io.WriteCloser) Reporter { return NewJUnitReporter(w) }
	case FormatJSON:
		newFn = func(w io.WriteCloser) Reporter { return NewJSONReporter(w) }
	case FormatText, "":
		newFn = func(w io.WriteCloser) Reporter { return NewTextReporter(w) }
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if outputPath == "" || outputPath == "stdout" {
		return newFn(&nopWriteCloser{os.Stdout}), nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	return newFn(f), nil
}

// NewWriter creates a reporter for format writing to w. Close does not close w.
func NewWriter(format string, w io.Writer) (Reporter, error) {
	wc := &nopWriteCloser{w}
	switch format {
	case FormatJUnit:
		return NewJUnitReporter(wc), nil
	case FormatJSON:
		return NewJSONReporter(wc), nil
	case FormatText, "":
		return NewTextReporter(wc), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

// single guards the one-run contract shared by the reporters.
type single struct {
	run *results.Run
}

func (s *single) set(run *results.Run) error {
	if run == nil {
		return fmt.Errorf("cannot report a nil run")
	}
	if s.run != nil {
		return fmt.Errorf("reporter already holds run %s", s.run.ID)
	}
	s.run = run
	return nil
}
