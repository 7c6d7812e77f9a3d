// internal/scenario/runner_test.go
package scenario_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/jobboard"
	"github.com/xkilldash9x/applyflow/internal/results"
	"github.com/xkilldash9x/applyflow/internal/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// demoConfig points the suite at the built-in job board with fast timings.
func demoConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.Driver = config.DriverSnapshot
	cfg.ActionCfg = config.ActionConfig{
		MaxAttempts:   2,
		BaseBackoff:   time.Millisecond,
		Timeout:       50 * time.Millisecond,
		SettleTime:    time.Millisecond,
		SettleTimeout: 50 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}
	cfg.DiscoveryCfg.PollInterval = time.Millisecond
	cfg.DiscoveryCfg.Timeout = 50 * time.Millisecond
	cfg.DiscoveryCfg.LabelTimeout = 10 * time.Millisecond
	cfg.VerifyCfg.ErrorTimeout = 20 * time.Millisecond

	opts := jobboard.DefaultOptions()
	cfg.TargetCfg.BaseURL = jobboard.BaseURL
	cfg.TargetCfg.Username = opts.Username
	cfg.TargetCfg.Password = opts.Password

	cfg.ResumesCfg.Dir = t.TempDir()
	require.NoError(t, jobboard.WriteSampleResumes(cfg.ResumesCfg.Dir, cfg.ResumesCfg.Valid, cfg.ResumesCfg.Oversized))
	return cfg
}

func boardFactory(logger *zap.Logger) scenario.PageFactory {
	return jobboard.PageFactory(logger, jobboard.DefaultOptions(), dom.WithPollInterval(time.Millisecond))
}

func TestApplySuiteAgainstJobBoard(t *testing.T) {
	cfg := demoConfig(t)
	cfg.RunnerCfg.Concurrency = 4
	logger := zaptest.NewLogger(t)

	runner, err := scenario.NewRunner(cfg, logger, boardFactory(logger))
	require.NoError(t, err)

	run, err := runner.Run(context.Background(), scenario.Select(scenario.Apply(), cfg.Runner().Tags))
	require.NoError(t, err)
	require.Len(t, run.Results, 4)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, config.DriverSnapshot, run.Driver)

	for i, id := range []string{"apply_1_001", "apply_1_002", "apply_1_003", "apply_1_004"} {
		res := run.Results[i]
		assert.Equal(t, id, res.ID)
		assert.Equal(t, results.StatusPassed, res.Status, "%s: %s", id, res.Error)
		assert.NotEmpty(t, res.Records, "%s recorded no actions", id)
		assert.Contains(t, res.Tags, "@"+id)
	}
	assert.True(t, run.OK())
}

func TestFailedScenarioIsRecorded(t *testing.T) {
	cfg := demoConfig(t)
	cfg.TargetCfg.Password = "wrong"
	logger := zaptest.NewLogger(t)

	runner, err := scenario.NewRunner(cfg, logger, boardFactory(logger))
	require.NoError(t, err)

	run, err := runner.Run(context.Background(), scenario.Select(scenario.Apply(), []string{"apply_1_003"}))
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, results.StatusFailed, run.Results[0].Status)
	assert.Contains(t, run.Results[0].Error, "setup: login rejected")
	assert.False(t, run.OK())
}

type closeCounter struct {
	element.Page
	closed *atomic.Int32
}

func (c closeCounter) Close() error {
	c.closed.Add(1)
	return c.Page.Close()
}

func TestRunnerClosesPagesAndRecoversPanics(t *testing.T) {
	cfg := demoConfig(t)
	cfg.RunnerCfg.Concurrency = 2
	logger := zaptest.NewLogger(t)
	var closed atomic.Int32
	factory := func(ctx context.Context) (element.Page, error) {
		p, err := boardFactory(logger)(ctx)
		return closeCounter{Page: p, closed: &closed}, err
	}

	scenarios := []scenario.Scenario{
		{ID: "ok", Run: func(ctx context.Context, env *scenario.Env) error { return nil }},
		{ID: "boom", Run: func(ctx context.Context, env *scenario.Env) error { panic("boom") }},
		{ID: "err", Run: func(ctx context.Context, env *scenario.Env) error { return errors.New("nope") }},
	}
	runner, err := scenario.NewRunner(cfg, logger, factory)
	require.NoError(t, err)
	run, err := runner.Run(context.Background(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, results.StatusPassed, run.Results[0].Status)
	assert.Equal(t, results.StatusFailed, run.Results[1].Status)
	assert.Equal(t, "panic: boom", run.Results[1].Error)
	assert.Equal(t, "nope", run.Results[2].Error)
	assert.Equal(t, int32(3), closed.Load())
}

func TestCancelledRunSkips(t *testing.T) {
	cfg := demoConfig(t)
	logger := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, err := scenario.NewRunner(cfg, logger, boardFactory(logger))
	require.NoError(t, err)
	run, err := runner.Run(ctx, scenario.Apply())
	require.ErrorIs(t, err, context.Canceled)
	for _, res := range run.Results {
		assert.Equal(t, results.StatusSkipped, res.Status)
	}
	assert.Equal(t, 4, run.Summarize().Skipped)
}

func TestScenarioTimeout(t *testing.T) {
	cfg := demoConfig(t)
	cfg.RunnerCfg.ScenarioTimeout = 5 * time.Millisecond
	logger := zaptest.NewLogger(t)
	runner, err := scenario.NewRunner(cfg, logger, boardFactory(logger))
	require.NoError(t, err)

	slow := scenario.Scenario{ID: "slow", Run: func(ctx context.Context, env *scenario.Env) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	run, err := runner.Run(context.Background(), []scenario.Scenario{slow})
	require.NoError(t, err)
	assert.Equal(t, results.StatusFailed, run.Results[0].Status)
	assert.Contains(t, run.Results[0].Error, context.DeadlineExceeded.Error())
}

func TestNewRunnerValidates(t *testing.T) {
	logger := zaptest.NewLogger(t)
	_, err := scenario.NewRunner(nil, logger, boardFactory(logger))
	assert.Error(t, err)
	_, err = scenario.NewRunner(config.NewDefaultConfig(), nil, boardFactory(logger))
	assert.Error(t, err)
	_, err = scenario.NewRunner(config.NewDefaultConfig(), logger, nil)
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	all := scenario.Apply()
	assert.Len(t, scenario.Select(all, nil), 4)
	assert.Len(t, scenario.Select(all, []string{"@jobs"}), 4)
	assert.Len(t, scenario.Select(all, []string{"APPLY"}), 4)

	one := scenario.Select(all, []string{"@apply_1_002"})
	require.Len(t, one, 1)
	assert.Equal(t, "Verify that user can apply job successfully", one[0].Title)

	assert.Empty(t, scenario.Select(all, []string{"@smoke"}))
}

func TestResumePath(t *testing.T) {
	env := &scenario.Env{Resumes: config.ResumesConfig{Dir: "/data/cv"}}
	assert.Equal(t, "/data/cv/a.pdf", env.ResumePath("a.pdf"))
	assert.Equal(t, "/tmp/b.pdf", env.ResumePath("/tmp/b.pdf"))
}
