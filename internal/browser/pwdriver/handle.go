// internal/browser/pwdriver/handle.go
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Handle is an XPath locator. Playwright locators resolve lazily, which is
// the semantics element.Handle asks for.
type Handle struct {
	p    *Page
	expr string
}

var _ element.Handle = (*Handle)(nil)

func (h *Handle) Key() string    { return h.expr }
func (h *Handle) String() string { return h.expr }

func (h *Handle) locator() playwright.Locator {
	return h.p.page.Locator("xpath=" + h.expr)
}

// present fails fast with ErrNotFound instead of letting Playwright auto-wait.
func (h *Handle) present(ctx context.Context) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := h.locator()
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", h.expr, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", element.ErrNotFound, h.expr)
	}
	return loc.First(), nil
}

func (h *Handle) Locate(selector string) element.Handle {
	return &Handle{p: h.p, expr: element.Join(h.expr, selector)}
}

func (h *Handle) First() element.Handle {
	return &Handle{p: h.p, expr: element.Nth(h.expr, 1)}
}

func (h *Handle) All(ctx context.Context) ([]element.Handle, error) {
	n, err := h.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]element.Handle, n)
	for i := range out {
		out[i] = &Handle{p: h.p, expr: element.Nth(h.expr, i+1)}
	}
	return out, nil
}

func (h *Handle) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return h.locator().Count()
}

func (h *Handle) Click(ctx context.Context) error {
	loc, err := h.present(ctx)
	if err != nil {
		return err
	}
	return loc.Click(playwright.LocatorClickOptions{Timeout: timeoutMS(ctx, 0)})
}

func (h *Handle) Fill(ctx context.Context, value string) error {
	loc, err := h.present(ctx)
	if err != nil {
		return err
	}
	return loc.Fill(value, playwright.LocatorFillOptions{Timeout: timeoutMS(ctx, 0)})
}

func (h *Handle) Clear(ctx context.Context) error {
	loc, err := h.present(ctx)
	if err != nil {
		return err
	}
	return loc.Clear(playwright.LocatorClearOptions{Timeout: timeoutMS(ctx, 0)})
}

func (h *Handle) Text(ctx context.Context) (string, error) {
	loc, err := h.present(ctx)
	if err != nil {
		return "", err
	}
	return loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: timeoutMS(ctx, 0)})
}

func (h *Handle) InputValue(ctx context.Context) (string, error) {
	loc, err := h.present(ctx)
	if err != nil {
		return "", err
	}
	return loc.InputValue(playwright.LocatorInputValueOptions{Timeout: timeoutMS(ctx, 0)})
}

// Attribute distinguishes an absent attribute from an empty one, which
// Locator.GetAttribute cannot.
func (h *Handle) Attribute(ctx context.Context, name string) (string, bool, error) {
	loc, err := h.present(ctx)
	if err != nil {
		return "", false, err
	}
	v, err := loc.Evaluate(`(el, name) => el.hasAttribute(name) ? el.getAttribute(name) : null`, name)
	if err != nil || v == nil {
		return "", false, err
	}
	s, _ := v.(string)
	return s, true, nil
}

func (h *Handle) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return h.locator().First().IsVisible()
}

func (h *Handle) WaitVisible(ctx context.Context, timeout time.Duration) error {
	return h.wait(ctx, timeout, playwright.WaitForSelectorStateVisible, element.ErrNotVisible)
}

func (h *Handle) WaitHidden(ctx context.Context, timeout time.Duration) error {
	return h.wait(ctx, timeout, playwright.WaitForSelectorStateHidden, element.ErrStillVisible)
}

func (h *Handle) wait(ctx context.Context, timeout time.Duration, state *playwright.WaitForSelectorState, timeoutErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = h.p.pollInterval
	}
	err := h.locator().First().WaitFor(playwright.LocatorWaitForOptions{State: state, Timeout: timeoutMS(ctx, timeout)})
	if errors.Is(err, playwright.ErrTimeout) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", timeoutErr, h.expr)
	}
	return err
}

func (h *Handle) SetFiles(ctx context.Context, paths ...string) error {
	loc, err := h.present(ctx)
	if err != nil {
		return err
	}
	return loc.SetInputFiles(paths, playwright.LocatorSetInputFilesOptions{Timeout: timeoutMS(ctx, 0)})
}

// SelectOption matches by value first, then by label. The option is
// resolved up front since Playwright waits out its timeout on a miss.
func (h *Handle) SelectOption(ctx context.Context, value string) error {
	loc, err := h.present(ctx)
	if err != nil {
		return err
	}
	v, err := loc.Evaluate(`(el, want) => {
		const opts = Array.from(el.options || []);
		const hit = opts.find(o => o.value === want) || opts.find(o => o.text.trim() === want);
		return hit ? hit.value : null;
	}`, value)
	if err != nil {
		return err
	}
	resolved, ok := v.(string)
	if !ok {
		return fmt.Errorf("option %q not found in %s", value, h.expr)
	}
	_, err = loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{resolved}}, playwright.LocatorSelectOptionOptions{Timeout: timeoutMS(ctx, 0)})
	return err
}
