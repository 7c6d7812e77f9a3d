// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/reporting"
	"github.com/xkilldash9x/applyflow/internal/results"
	"github.com/xkilldash9x/applyflow/internal/scenario"
)

// errScenariosFailed makes the process exit non-zero after a run that
// completed with failures. The report already describes them.
var errScenariosFailed = errors.New("one or more scenarios failed")

type runOptions struct {
	tags        []string
	driver      string
	headless    bool
	concurrency int
	format      string
	output      string
	demo        bool
	persist     bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the apply scenarios selected by tag",
		Long: `Runs every scenario carrying one of the given tags (default @apply) and
writes a report. Scenario IDs work as tags, e.g. --tags @apply_1_002.
With --demo the suite runs against a built-in job board, no browser needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, a, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&opts.tags, "tags", "t", nil, "scenario tags to run (overrides runner.tags)")
	f.StringVar(&opts.driver, "driver", "", "browser driver: chromedp, playwright or snapshot")
	f.BoolVar(&opts.headless, "headless", true, "run the browser headless")
	f.IntVar(&opts.concurrency, "concurrency", 0, "scenarios run in parallel (overrides runner.concurrency)")
	f.StringVarP(&opts.format, "format", "f", "", "report format: junit, json or text")
	f.StringVarP(&opts.output, "output", "o", "", "report path (default stdout)")
	f.BoolVar(&opts.demo, "demo", false, "run against the built-in job board")
	f.BoolVar(&opts.persist, "persist", true, "save the run when database.url is set")
	return cmd
}

func runScenarios(cmd *cobra.Command, a *app, opts *runOptions) error {
	ctx := cmd.Context()
	cfg, logger := a.cfg, a.logger
	flags := cmd.Flags()

	if flags.Changed("tags") {
		cfg.SetRunnerTags(opts.tags)
	}
	if opts.driver != "" {
		cfg.SetBrowserDriver(opts.driver)
	}
	if flags.Changed("headless") {
		cfg.SetBrowserHeadless(opts.headless)
	}
	if opts.concurrency > 0 {
		cfg.SetRunnerConcurrency(opts.concurrency)
	}
	format, output := cfg.Report().Format, cfg.Report().Output
	if opts.format != "" {
		format = opts.format
	}
	if opts.output != "" {
		output = opts.output
	}
	cfg.SetReportOutput(format, output)

	selected := scenario.Select(scenario.Apply(), cfg.Runner().Tags)
	if len(selected) == 0 {
		return fmt.Errorf("no scenarios match tags %v", cfg.Runner().Tags)
	}

	var factory scenario.PageFactory
	if opts.demo {
		f, cleanup, err := configureDemo(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		factory = f
	} else {
		f, shutdown, err := pageFactory(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("Browser driver shutdown failed", zap.Error(err))
			}
		}()
		factory = f
	}

	runner, err := scenario.NewRunner(cfg, logger, factory)
	if err != nil {
		return fmt.Errorf("failed to create scenario runner: %w", err)
	}
	run, runErr := runner.Run(ctx, selected)

	// A cancelled run still gets reported with its skipped scenarios.
	if err := writeReport(cmd.OutOrStdout(), run, cfg.Report().Format, cfg.Report().Output); err != nil {
		return err
	}
	if opts.persist && cfg.Database().URL != "" {
		if err := persistRun(context.WithoutCancel(ctx), a, run); err != nil {
			logger.Error("Failed to persist run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	if runErr != nil {
		return fmt.Errorf("run %s aborted: %w", run.ID, runErr)
	}
	if !run.OK() {
		logger.Warn("Run finished with failures", zap.String("run_id", run.ID), zap.Stringer("summary", run.Summarize()))
		return errScenariosFailed
	}
	logger.Info("Run finished", zap.String("run_id", run.ID), zap.Stringer("summary", run.Summarize()))
	return nil
}

// writeReport renders run to output, or to stdout when output is empty or
// "stdout".
func writeReport(stdout io.Writer, run *results.Run, format, output string) error {
	var (
		r   reporting.Reporter
		err error
	)
	if output == "" || output == "stdout" {
		r, err = reporting.NewWriter(format, stdout)
	} else {
		r, err = reporting.New(format, output)
	}
	if err != nil {
		return err
	}
	if err := r.Write(run); err != nil {
		_ = r.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := r.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	return nil
}

func persistRun(ctx context.Context, a *app, run *results.Run) error {
	s, cleanup, err := a.stores.Create(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	return s.SaveRun(ctx, run)
}
