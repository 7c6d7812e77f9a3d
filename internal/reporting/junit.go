// internal/reporting/junit.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/applyflow/internal/results"
)

// JUnitReporter renders a run as a JUnit testsuites document, the format CI
// systems pick up for test dashboards.
type JUnitReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex
	single
}

func NewJUnitReporter(w io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

func (r *JUnitReporter) Write(run *results.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(run)
}

// Close writes the document and closes the writer.
func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.run != nil {
		doc := BuildJUnit(r.run)
		doc.Indent(2)
		if _, werr := doc.WriteTo(r.writer); werr != nil {
			err = fmt.Errorf("failed to write junit report: %w", werr)
		}
	}
	if cerr := r.writer.Close(); err == nil {
		err = cerr
	}
	return err
}

// BuildJUnit converts run into a JUnit document.
func BuildJUnit(run *results.Run) *etree.Document {
	sum := run.Summarize()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", run.Suite)
	suites.CreateAttr("tests", strconv.Itoa(sum.Total))
	suites.CreateAttr("failures", strconv.Itoa(sum.Failed))
	suites.CreateAttr("skipped", strconv.Itoa(sum.Skipped))
	suites.CreateAttr("time", seconds(sum.Duration))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", run.Suite)
	suite.CreateAttr("id", run.ID)
	suite.CreateAttr("tests", strconv.Itoa(sum.Total))
	suite.CreateAttr("failures", strconv.Itoa(sum.Failed))
	suite.CreateAttr("errors", "0")
	suite.CreateAttr("skipped", strconv.Itoa(sum.Skipped))
	suite.CreateAttr("time", seconds(sum.Duration))
	if !run.Started.IsZero() {
		suite.CreateAttr("timestamp", run.Started.UTC().Format(time.RFC3339))
	}

	props := suite.CreateElement("properties")
	prop := props.CreateElement("property")
	prop.CreateAttr("name", "driver")
	prop.CreateAttr("value", run.Driver)

	for _, res := range run.Results {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", res.ID+": "+res.Title)
		tc.CreateAttr("classname", run.Suite)
		tc.CreateAttr("time", seconds(res.Duration))

		switch res.Status {
		case results.StatusFailed:
			f := tc.CreateElement("failure")
			f.CreateAttr("message", res.Error)
			f.CreateAttr("type", "AssertionError")
			f.SetText(stepLog(res))
		case results.StatusSkipped:
			s := tc.CreateElement("skipped")
			if res.Error != "" {
				s.CreateAttr("message", res.Error)
			}
		}
	}
	return doc
}

func stepLog(res results.ScenarioResult) string {
	var out []byte
	for _, rec := range res.Records {
		out = fmt.Appendf(out, "%s [%s] %s", rec.Time.UTC().Format(time.RFC3339), rec.Level, rec.Message)
		if rec.Description != "" {
			out = fmt.Appendf(out, ": %s", rec.Description)
		}
		if rec.Error != "" {
			out = fmt.Appendf(out, " (%s)", rec.Error)
		}
		out = append(out, '\n')
	}
	return string(out)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
