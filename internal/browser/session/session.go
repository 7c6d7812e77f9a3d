// internal/browser/session/session.go
// Package session drives a real Chrome through the DevTools protocol with
// chromedp. Each Session owns one browser process and one tab, so scenarios
// never share cookies or storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
)

const defaultNavigationTimeout = 60 * time.Second

// Session is one browser tab. It implements element.Page.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCancel  context.CancelFunc
	pollInterval time.Duration
	closeOnce    sync.Once

	// networkIdle is set by the frame's networkIdle lifecycle event and
	// cleared when a new document starts loading.
	networkIdle atomic.Bool
}

var _ element.Page = (*Session)(nil)

// ExecOptions builds the allocator options for cfg.
func ExecOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// New launches a browser and opens a tab. parent bounds the session's life.
func New(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	id := uuid.NewString()
	log := logger.With(zap.String("session_id", id), zap.String("driver", config.DriverChromedp))

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, ExecOptions(cfg)...)
	ctxOpts := []chromedp.ContextOption{chromedp.WithErrorf(log.Sugar().Errorf)}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(log.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:           id,
		ctx:          tabCtx,
		cancel:       tabCancel,
		logger:       log,
		cfg:          cfg,
		allocCancel:  allocCancel,
		pollInterval: 100 * time.Millisecond,
	}

	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	log.Info("Browser session started")
	return s, nil
}

// Factory opens a new Session per call.
func Factory(cfg config.BrowserConfig, logger *zap.Logger) func(ctx context.Context) (element.Page, error) {
	return func(ctx context.Context) (element.Page, error) {
		// The browser must outlive the scenario's setup context.
		return New(context.WithoutCancel(ctx), cfg, logger)
	}
}

func (s *Session) onEvent(ev any) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return
	}
	switch e.Name {
	case "init":
		s.networkIdle.Store(false)
	case "networkIdle":
		s.networkIdle.Store(true)
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// run executes actions on the tab, bounded by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) Locate(selector string) element.Handle {
	return &Handle{s: s, expr: element.Join("", selector)}
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("Navigating session", zap.String("url", url))
	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, timeout, navCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"ArrowDown":  kb.ArrowDown,
	"ArrowUp":    kb.ArrowUp,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
}

// Press sends key to the focused element.
func (s *Session) Press(ctx context.Context, key string) error {
	if k, ok := namedKeys[key]; ok {
		key = k
	}
	return s.run(ctx, chromedp.KeyEvent(key))
}

// WaitForLoad polls document.readyState. "networkidle" additionally waits
// for the frame's networkIdle lifecycle event.
func (s *Session) WaitForLoad(ctx context.Context, state string, timeout time.Duration) error {
	want := []string{"complete"}
	if state == element.LoadStateDOMContentLoaded {
		want = append(want, "interactive")
	}
	return action.Poll(ctx, s.pollInterval, timeout, func(ctx context.Context) (bool, error) {
		if state == element.LoadStateNetworkIdle && !s.networkIdle.Load() {
			return false, nil
		}
		var ready string
		if err := s.run(ctx, chromedp.Evaluate(`document.readyState`, &ready)); err != nil {
			return false, err
		}
		for _, w := range want {
			if ready == w {
				return true, nil
			}
		}
		return false, nil
	})
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

// Close shuts the tab and the browser process down.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.logger.Info("Browser session closed")
	})
	return err
}

// setFiles attaches paths to the file input matched by expr.
func (s *Session) setFiles(ctx context.Context, expr string, paths []string) error {
	return s.run(ctx, chromedp.SetUploadFiles(expr, paths, chromedp.BySearch, chromedp.NodeReady))
}
