// File: cmd/providers.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/browser/pwdriver"
	"github.com/xkilldash9x/applyflow/internal/browser/session"
	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/jobboard"
	"github.com/xkilldash9x/applyflow/internal/results"
	"github.com/xkilldash9x/applyflow/internal/scenario"
	"github.com/xkilldash9x/applyflow/internal/store"
)

// runStore is the part of store.Store the commands use.
type runStore interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *results.Run) error
	LoadRun(ctx context.Context, id string) (*results.Run, error)
	LatestRunID(ctx context.Context) (string, error)
}

// storeProvider creates the run store. Tests inject a fake instead of a
// live database connection.
type storeProvider interface {
	// Create returns the store and a cleanup function that releases it.
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (runStore, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL-backed provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (runStore, func(), error) {
	if cfg.Database().URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (APPLYFLOW_DATABASE_URL)")
	}
	s, closePool, err := store.Connect(ctx, cfg.Database().URL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	cleanup := func() {
		closePool()
		logger.Debug("Database connection pool closed")
	}
	return s, cleanup, nil
}

// blankPage is an empty snapshot document; scenarios navigate it.
func blankPage(logger *zap.Logger) scenario.PageFactory {
	return func(ctx context.Context) (element.Page, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return dom.ParseString("<html><body></body></html>", dom.WithLogger(logger))
	}
}

// pageFactory picks the driver named by browser.driver. The cleanup
// function shuts the driver down.
func pageFactory(cfg config.Interface, logger *zap.Logger) (scenario.PageFactory, func(context.Context) error, error) {
	nop := func(context.Context) error { return nil }
	switch driver := cfg.Browser().Driver; driver {
	case config.DriverChromedp:
		return session.Factory(cfg.Browser(), logger), nop, nil
	case config.DriverPlaywright:
		m := pwdriver.NewManager(cfg.Browser(), logger)
		return m.Factory(), m.Shutdown, nil
	case config.DriverSnapshot:
		return blankPage(logger), nop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported browser driver: %s", driver)
	}
}

// configureDemo points cfg at the built-in job board and writes the resume
// fixtures into a temporary directory. The returned function removes it.
func configureDemo(cfg *config.Config, logger *zap.Logger) (scenario.PageFactory, func(), error) {
	dir, err := os.MkdirTemp("", "applyflow-demo-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create demo resume dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := jobboard.WriteSampleResumes(dir, cfg.ResumesCfg.Valid, cfg.ResumesCfg.Oversized); err != nil {
		cleanup()
		return nil, nil, err
	}
	opts := jobboard.DefaultOptions()
	cfg.SetBrowserDriver(config.DriverSnapshot)
	cfg.ResumesCfg.Dir = dir
	cfg.TargetCfg.BaseURL = jobboard.BaseURL
	cfg.TargetCfg.Username = opts.Username
	cfg.TargetCfg.Password = opts.Password

	// The board renders synchronously, so the settle and wait budgets
	// sized for a remote site only slow the demo down.
	cfg.ActionCfg.SettleTime = 10 * time.Millisecond
	cfg.ActionCfg.SettleTimeout = time.Second
	cfg.ActionCfg.BaseBackoff = 10 * time.Millisecond
	cfg.ActionCfg.PollInterval = 5 * time.Millisecond
	cfg.ActionCfg.Timeout = 2 * time.Second
	cfg.DiscoveryCfg.PollInterval = 5 * time.Millisecond
	cfg.DiscoveryCfg.Timeout = 2 * time.Second
	cfg.DiscoveryCfg.LabelTimeout = 200 * time.Millisecond
	cfg.VerifyCfg.ErrorTimeout = time.Second

	logger.Info("Running against the built-in job board", zap.String("base_url", jobboard.BaseURL), zap.String("resumes", dir))
	return jobboard.PageFactory(logger, opts, dom.WithPollInterval(5*time.Millisecond)), cleanup, nil
}
