// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Action() config.ActionConfig {
	args := m.Called()
	return args.Get(0).(config.ActionConfig)
}

func (m *MockConfig) Discovery() config.DiscoveryConfig {
	args := m.Called()
	return args.Get(0).(config.DiscoveryConfig)
}

func (m *MockConfig) Verify() config.VerifyConfig {
	args := m.Called()
	return args.Get(0).(config.VerifyConfig)
}

func (m *MockConfig) Fill() config.FillConfig {
	args := m.Called()
	return args.Get(0).(config.FillConfig)
}

func (m *MockConfig) Target() config.TargetConfig {
	args := m.Called()
	return args.Get(0).(config.TargetConfig)
}

func (m *MockConfig) Resumes() config.ResumesConfig {
	args := m.Called()
	return args.Get(0).(config.ResumesConfig)
}

func (m *MockConfig) Runner() config.RunnerConfig {
	args := m.Called()
	return args.Get(0).(config.RunnerConfig)
}

func (m *MockConfig) Report() config.ReportConfig {
	args := m.Called()
	return args.Get(0).(config.ReportConfig)
}

func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserDriver(d string)          { m.Called(d) }
func (m *MockConfig) SetBrowserHeadless(b bool)          { m.Called(b) }
func (m *MockConfig) SetRunnerTags(tags []string)        { m.Called(tags) }
func (m *MockConfig) SetRunnerConcurrency(n int)         { m.Called(n) }
func (m *MockConfig) SetReportOutput(format, out string) { m.Called(format, out) }

// -- Element Mocks --

// MockHandle mocks element.Handle. Derived handles returned from Locate,
// First and All are whatever the test configures.
type MockHandle struct {
	mock.Mock
	label string
}

func (m *MockHandle) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Fill(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockHandle) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) InputValue(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) Attribute(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockHandle) IsVisible(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockHandle) WaitVisible(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *MockHandle) WaitHidden(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *MockHandle) SetFiles(ctx context.Context, paths ...string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *MockHandle) SelectOption(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockHandle) Locate(selector string) element.Handle {
	args := m.Called(selector)
	return args.Get(0).(element.Handle)
}

func (m *MockHandle) First() element.Handle {
	args := m.Called()
	return args.Get(0).(element.Handle)
}

func (m *MockHandle) All(ctx context.Context) ([]element.Handle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]element.Handle), args.Error(1)
}

func (m *MockHandle) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Key and String are not recorded as calls; they return the label set by
// Named so that log lines stay readable without extra expectations.
func (m *MockHandle) Key() string    { return m.name() }
func (m *MockHandle) String() string { return m.name() }

// Named labels the handle in Key and String.
func (m *MockHandle) Named(name string) *MockHandle {
	m.label = name
	return m
}

func (m *MockHandle) name() string {
	if m.label == "" {
		return "mock-handle"
	}
	return m.label
}

// MockPage mocks element.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Locate(selector string) element.Handle {
	args := m.Called(selector)
	return args.Get(0).(element.Handle)
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Press(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockPage) WaitForLoad(ctx context.Context, state string, timeout time.Duration) error {
	return m.Called(ctx, state, timeout).Error(0)
}

func (m *MockPage) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Close() error {
	return m.Called().Error(0)
}

// -- Recorder Mock --

// CapturingRecorder is an action.Recorder that keeps records for assertions.
type CapturingRecorder struct {
	mu      sync.Mutex
	Records []action.Record
}

func (r *CapturingRecorder) Record(rec action.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, rec)
}

// Messages returns the recorded messages in order.
func (r *CapturingRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Message
	}
	return out
}

var (
	_ config.Interface = (*MockConfig)(nil)
	_ element.Handle   = (*MockHandle)(nil)
	_ element.Page     = (*MockPage)(nil)
	_ action.Recorder  = (*CapturingRecorder)(nil)
)
