// internal/reporting/text.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/applyflow/internal/results"
)

// TextReporter prints one line per scenario and the run summary.
type TextReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex
	single
}

func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{writer: w}
}

func (r *TextReporter) Write(run *results.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(run)
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.run != nil {
		_, err = io.WriteString(r.writer, RenderText(r.run))
	}
	if cerr := r.writer.Close(); err == nil {
		err = cerr
	}
	return err
}

// RenderText formats run for a terminal.
func RenderText(run *results.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, driver %s)\n", run.ID, run.Suite, run.Driver)
	for _, res := range run.Results {
		fmt.Fprintf(&b, "  %-7s %s %s (%s)\n", strings.ToUpper(string(res.Status)), res.ID, res.Title, res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			fmt.Fprintf(&b, "          %s\n", res.Error)
		}
	}
	fmt.Fprintln(&b, run.Summarize().String())
	return b.String()
}
