// internal/browser/pwdriver/manager.go
// Package pwdriver drives Chromium through Playwright. One Manager owns the
// driver and the browser process; every page gets its own browser context.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
)

const playwrightInstallTimeout = 5 * time.Minute

// Manager handles the browser process lifecycle and page creation.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
	cfg     config.BrowserConfig

	mu    sync.Mutex
	pages map[*Page]struct{}
	wg    sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a manager. The browser starts on the first NewPage.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	m := &Manager{
		logger: logger.Named("playwright"),
		cfg:    cfg,
		pages:  make(map[*Page]struct{}),
	}
	m.logger.Info("Browser manager created (initialization deferred)")
	return m
}

func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Initializing Playwright and launching browser")
		if err := m.ensureInstallation(ctx); err != nil {
			m.initErr = err
			return
		}
		pw, err := playwright.Run()
		if err != nil {
			m.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}
		browser, err := pw.Chromium.Launch(m.launchOptions())
		if err != nil {
			_ = pw.Stop()
			m.initErr = fmt.Errorf("failed to launch browser instance: %w", err)
			return
		}
		m.pw, m.browser = pw, browser
		m.logger.Info("Browser manager initialized", zap.String("browser_version", browser.Version()))
	})
	return m.initErr
}

func (m *Manager) ensureInstallation(ctx context.Context) error {
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			errc <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

func (m *Manager) launchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     append([]string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"}, m.cfg.Args...),
		Timeout:  playwright.Float(60000),
	}
	if m.cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(m.cfg.ExecPath)
	}
	return opts
}

func (m *Manager) contextOptions() playwright.BrowserNewContextOptions {
	var opts playwright.BrowserNewContextOptions
	if w, h := m.cfg.Viewport["width"], m.cfg.Viewport["height"]; w > 0 && h > 0 {
		opts.Viewport = &playwright.Size{Width: w, Height: h}
	}
	return opts
}

// NewPage opens a page in a fresh browser context.
func (m *Manager) NewPage(ctx context.Context) (element.Page, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}
	bctx, err := m.browser.NewContext(m.contextOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	pg, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if t := m.cfg.NavigationTimeout; t > 0 {
		pg.SetDefaultNavigationTimeout(float64(t.Milliseconds()))
	}

	p := &Page{page: pg, bctx: bctx, logger: m.logger, pollInterval: 100 * time.Millisecond}
	m.wg.Add(1)
	m.mu.Lock()
	m.pages[p] = struct{}{}
	m.mu.Unlock()
	p.onClose = func() {
		m.mu.Lock()
		delete(m.pages, p)
		m.mu.Unlock()
		m.wg.Done()
	}
	return p, nil
}

// Shutdown closes every open page, then the browser and the driver.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager")
	if m.pw == nil {
		return nil
	}

	m.mu.Lock()
	open := make([]*Page, 0, len(m.pages))
	for p := range m.pages {
		open = append(open, p)
	}
	m.mu.Unlock()
	for _, p := range open {
		if err := p.Close(); err != nil {
			m.logger.Warn("Error closing page during shutdown", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for pages to close", zap.Error(ctx.Err()))
	}

	var errs []error
	if err := m.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := m.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright driver: %w", err))
	}
	m.logger.Info("Browser manager shutdown complete")
	return errors.Join(errs...)
}

// Factory returns a page constructor bound to m, matching the signature the
// scenario runner expects.
func (m *Manager) Factory() func(ctx context.Context) (element.Page, error) {
	return m.NewPage
}
