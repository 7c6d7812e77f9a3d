// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/pages/jobs"
	"github.com/xkilldash9x/applyflow/internal/pages/login"
	"github.com/xkilldash9x/applyflow/internal/results"
)

// PageFactory opens a fresh page for one scenario. The runner closes it.
type PageFactory func(ctx context.Context) (element.Page, error)

// Runner executes scenarios, each with its own page and page objects.
type Runner struct {
	cfg     config.Interface
	logger  *zap.Logger
	factory PageFactory
	suite   string
	driver  string
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSuite names the suite in the run record.
func WithSuite(name string) Option {
	return func(r *Runner) { r.suite = name }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner validates its dependencies.
func NewRunner(cfg config.Interface, logger *zap.Logger, factory PageFactory, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if factory == nil {
		return nil, errors.New("page factory cannot be nil")
	}
	r := &Runner{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "scenario_runner")),
		factory: factory,
		suite:   "apply",
		driver:  cfg.Browser().Driver,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes scenarios with at most runner.concurrency in flight. Scenario
// failures are recorded in the result, not returned. Scenarios not started
// before ctx ends are marked skipped, and ctx's error is returned.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*results.Run, error) {
	run := &results.Run{
		ID:      uuid.NewString(),
		Suite:   r.suite,
		Driver:  r.driver,
		Started: r.now(),
		Results: make([]results.ScenarioResult, len(scenarios)),
	}
	concurrency := r.cfg.Runner().Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := r.logger.With(zap.String("run_id", run.ID))
	logger.Info("Starting scenario run", zap.Int("scenarios", len(scenarios)), zap.Int("concurrency", concurrency))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, sc := range scenarios {
		if ctx.Err() != nil {
			run.Results[i] = r.skipped(sc, ctx.Err())
			continue
		}
		g.Go(func() error {
			run.Results[i] = r.runOne(ctx, logger, sc)
			return nil
		})
	}
	_ = g.Wait()

	run.Finished = r.now()
	logger.Info("Scenario run finished", zap.Stringer("summary", run.Summarize()))
	return run, ctx.Err()
}

func (r *Runner) skipped(sc Scenario, cause error) results.ScenarioResult {
	return results.ScenarioResult{
		ID:      sc.ID,
		Title:   sc.Title,
		Tags:    sc.AllTags(),
		Status:  results.StatusSkipped,
		Error:   cause.Error(),
		Started: r.now(),
	}
}

func (r *Runner) runOne(ctx context.Context, logger *zap.Logger, sc Scenario) (res results.ScenarioResult) {
	if ctx.Err() != nil {
		return r.skipped(sc, ctx.Err())
	}
	logger = logger.With(zap.String("scenario", sc.ID))
	res = results.ScenarioResult{ID: sc.ID, Title: sc.Title, Tags: sc.AllTags(), Started: r.now()}
	rec := &action.MemoryRecorder{}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Scenario panicked", zap.Any("panic", p), zap.Stack("stack"))
			res.Status, res.Error = results.StatusFailed, fmt.Sprintf("panic: %v", p)
		}
		res.Duration = r.now().Sub(res.Started)
		res.Records = rec.Records()
		logger.Info("Scenario finished", zap.String("status", string(res.Status)), zap.Duration("duration", res.Duration))
	}()

	if timeout := r.cfg.Runner().ScenarioTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("Starting scenario", zap.String("title", sc.Title))
	err := r.execute(ctx, logger, sc, rec)
	if err != nil {
		logger.Error("Scenario failed", zap.Error(err))
		res.Status, res.Error = results.StatusFailed, err.Error()
		return res
	}
	res.Status = results.StatusPassed
	return res
}

func (r *Runner) execute(ctx context.Context, logger *zap.Logger, sc Scenario, rec action.Recorder) error {
	page, err := r.factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			logger.Warn("Failed to close page", zap.Error(cerr))
		}
	}()

	env, err := r.newEnv(logger, page, rec)
	if err != nil {
		return err
	}
	if sc.Setup != nil {
		if err := sc.Setup(ctx, env); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	return sc.Run(ctx, env)
}

// newEnv builds the page-object graph for one scenario.
func (r *Runner) newEnv(logger *zap.Logger, page element.Page, rec action.Recorder) (*Env, error) {
	exec := action.New(logger, action.PolicyFromConfig(r.cfg.Action()), action.WithRecorder(rec))
	xcfg, err := fields.ExtractorConfigFromConfig(r.cfg.Discovery())
	if err != nil {
		return nil, err
	}
	target := r.cfg.Target()
	return &Env{
		Login: login.NewPage(logger, page, exec),
		Jobs: jobs.NewPage(jobs.Deps{
			Logger:    logger,
			Page:      page,
			Executor:  exec,
			Extractor: fields.NewExtractor(logger, exec, xcfg),
			Verifier:  fields.NewVerifier(logger, exec, fields.VerifierConfigFromConfig(r.cfg.Verify())),
			Fill:      jobs.FillValuesFromConfig(r.cfg.Fill()),
			BaseURL:   target.BaseURL,
			JobsPath:  target.JobsPath,
		}),
		Target:  target,
		Resumes: r.cfg.Resumes(),
		Logger:  logger,
	}, nil
}
