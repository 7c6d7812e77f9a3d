// internal/action/record.go
package action

import (
	"sync"
	"time"
)

// Record is one structured observation emitted by the executor. Every attempt
// produces at least one.
type Record struct {
	Time        time.Time         `json:"timestamp"`
	Level       string            `json:"level"`
	Message     string            `json:"message"`
	Action      string            `json:"action"`
	Description string            `json:"description"`
	Attempt     int               `json:"attempt,omitempty"`
	MaxAttempts int               `json:"max_attempts,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Recorder receives executor records, typically to attach them to a
// scenario result.
type Recorder interface {
	Record(Record)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Record)

func (f RecorderFunc) Record(r Record) { f(r) }

// MemoryRecorder keeps records in memory. Safe for concurrent use.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *MemoryRecorder) Record(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
}

// Records returns a copy of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Reset drops all records.
func (m *MemoryRecorder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}
