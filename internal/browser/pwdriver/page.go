// internal/browser/pwdriver/page.go
package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Page wraps a Playwright page. It implements element.Page.
type Page struct {
	page         playwright.Page
	bctx         playwright.BrowserContext
	logger       *zap.Logger
	pollInterval time.Duration

	onClose   func()
	closeOnce sync.Once
}

var _ element.Page = (*Page)(nil)

// timeoutMS converts the remaining time on ctx into a Playwright timeout.
// Zero means Playwright's default.
func timeoutMS(ctx context.Context, limit time.Duration) *float64 {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); limit <= 0 || left < limit {
			limit = left
		}
	}
	if limit <= 0 {
		return nil
	}
	return playwright.Float(float64(limit.Milliseconds()))
}

func (p *Page) Locate(selector string) element.Handle {
	return &Handle{p: p, expr: element.Join("", selector)}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Navigating page", zap.String("url", url))
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutMS(ctx, 0),
	}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *Page) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Keyboard().Press(key)
}

var loadStates = map[string]*playwright.LoadState{
	element.LoadStateLoad:             playwright.LoadStateLoad,
	element.LoadStateDOMContentLoaded: playwright.LoadStateDomcontentloaded,
	element.LoadStateNetworkIdle:      playwright.LoadStateNetworkidle,
}

func (p *Page) WaitForLoad(ctx context.Context, state string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ls, ok := loadStates[state]
	if !ok {
		return fmt.Errorf("unknown load state %q", state)
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: ls, Timeout: timeoutMS(ctx, timeout)})
}

func (p *Page) URL(ctx context.Context) (string, error) {
	return p.page.URL(), ctx.Err()
}

// Close closes the page's browser context.
func (p *Page) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.bctx.Close()
		if p.onClose != nil {
			p.onClose()
		}
	})
	return err
}
