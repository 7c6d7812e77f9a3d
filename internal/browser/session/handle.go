// internal/browser/session/handle.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Handle addresses nodes of the tab by absolute XPath.
type Handle struct {
	s    *Session
	expr string
}

var _ element.Handle = (*Handle)(nil)

func (h *Handle) Key() string    { return h.expr }
func (h *Handle) String() string { return h.expr }

func (h *Handle) Locate(selector string) element.Handle {
	return &Handle{s: h.s, expr: element.Join(h.expr, selector)}
}

func (h *Handle) First() element.Handle {
	return &Handle{s: h.s, expr: element.Nth(h.expr, 1)}
}

func (h *Handle) All(ctx context.Context) ([]element.Handle, error) {
	n, err := h.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]element.Handle, n)
	for i := range out {
		out[i] = &Handle{s: h.s, expr: element.Nth(h.expr, i+1)}
	}
	return out, nil
}

func (h *Handle) Count(ctx context.Context) (int, error) {
	script, err := buildCountScript(h.expr)
	if err != nil {
		return 0, err
	}
	var n int
	if err := h.s.run(ctx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("invalid selector %q: %w", h.expr, err)
	}
	return n, nil
}

func evaluate[T any](ctx context.Context, h *Handle, arg any, body string) (evalResult[T], error) {
	var res evalResult[T]
	script, err := buildElementScript(h.expr, arg, body)
	if err != nil {
		return res, err
	}
	if err := h.s.run(ctx, chromedp.Evaluate(script, &res)); err != nil {
		return res, err
	}
	if !res.Found {
		return res, fmt.Errorf("%w: %s", element.ErrNotFound, h.expr)
	}
	return res, nil
}

// Click checks visibility first so a hidden target fails fast, then clicks
// with real mouse events.
func (h *Handle) Click(ctx context.Context) error {
	res, err := evaluate[bool](ctx, h, nil, jsClickCheck)
	if err != nil {
		return err
	}
	if !res.Value {
		return fmt.Errorf("%w: %s", element.ErrNotVisible, h.expr)
	}
	return h.s.run(ctx, chromedp.Click(h.expr, chromedp.BySearch, chromedp.NodeVisible))
}

func (h *Handle) Fill(ctx context.Context, value string) error {
	_, err := evaluate[any](ctx, h, value, jsFill)
	return err
}

func (h *Handle) Clear(ctx context.Context) error {
	return h.Fill(ctx, "")
}

func (h *Handle) Text(ctx context.Context) (string, error) {
	res, err := evaluate[string](ctx, h, nil, jsText)
	return res.Value, err
}

func (h *Handle) InputValue(ctx context.Context) (string, error) {
	res, err := evaluate[string](ctx, h, nil, jsValue)
	return res.Value, err
}

func (h *Handle) Attribute(ctx context.Context, name string) (string, bool, error) {
	res, err := evaluate[string](ctx, h, name, jsAttribute)
	return res.Value, res.Present, err
}

func (h *Handle) IsVisible(ctx context.Context) (bool, error) {
	res, err := evaluate[bool](ctx, h, nil, jsVisible)
	if errors.Is(err, element.ErrNotFound) {
		return false, nil
	}
	return res.Value, err
}

func (h *Handle) WaitVisible(ctx context.Context, timeout time.Duration) error {
	err := h.poll(ctx, timeout, true)
	if errors.Is(err, action.ErrPollTimeout) {
		return fmt.Errorf("%w: %s", element.ErrNotVisible, h.expr)
	}
	return err
}

func (h *Handle) WaitHidden(ctx context.Context, timeout time.Duration) error {
	err := h.poll(ctx, timeout, false)
	if errors.Is(err, action.ErrPollTimeout) {
		return fmt.Errorf("%w: %s", element.ErrStillVisible, h.expr)
	}
	return err
}

func (h *Handle) poll(ctx context.Context, timeout time.Duration, want bool) error {
	if timeout <= 0 {
		timeout = h.s.pollInterval
	}
	return action.Poll(ctx, h.s.pollInterval, timeout, func(ctx context.Context) (bool, error) {
		visible, err := h.IsVisible(ctx)
		if err != nil {
			return false, err
		}
		return visible == want, nil
	})
}

func (h *Handle) SetFiles(ctx context.Context, paths ...string) error {
	if n, err := h.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: %s", element.ErrNotFound, h.expr)
	}
	return h.s.setFiles(ctx, h.expr, paths)
}

func (h *Handle) SelectOption(ctx context.Context, value string) error {
	_, err := evaluate[string](ctx, h, value, jsSelect)
	return err
}
