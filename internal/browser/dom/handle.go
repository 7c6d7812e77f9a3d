// internal/browser/dom/handle.go
package dom

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Handle addresses nodes of a Document by absolute XPath. It re-resolves on
// every call.
type Handle struct {
	doc  *Document
	expr string
}

var _ element.Handle = (*Handle)(nil)

func (h *Handle) Key() string    { return h.expr }
func (h *Handle) String() string { return h.expr }

func (h *Handle) Locate(selector string) element.Handle {
	return &Handle{doc: h.doc, expr: element.Join(h.expr, selector)}
}

func (h *Handle) First() element.Handle {
	return &Handle{doc: h.doc, expr: element.Nth(h.expr, 1)}
}

func (h *Handle) All(ctx context.Context) ([]element.Handle, error) {
	n, err := h.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]element.Handle, n)
	for i := range out {
		out[i] = &Handle{doc: h.doc, expr: element.Nth(h.expr, i+1)}
	}
	return out, nil
}

func (h *Handle) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.doc.mu.RLock()
	defer h.doc.mu.RUnlock()
	nodes, err := h.doc.queryAll(h.expr)
	return len(nodes), err
}

// NodePath returns a stable positional XPath for the resolved node.
func (h *Handle) NodePath(ctx context.Context) (string, error) {
	var path string
	err := h.read(ctx, func(n *html.Node) error {
		path = NodePath(n)
		return nil
	})
	return path, err
}

func (h *Handle) Click(ctx context.Context) error {
	var target *html.Node
	err := h.write(ctx, func(n *html.Node) error {
		if !isVisible(n) {
			return fmt.Errorf("%w: %s", element.ErrNotVisible, h.expr)
		}
		if hasAttr(n, "disabled") {
			return fmt.Errorf("element %s is disabled", h.expr)
		}
		if isTag(n, "input") {
			switch strings.ToLower(attr(n, "type")) {
			case "checkbox":
				toggleAttr(n, "checked")
			case "radio":
				setAttr(n, "checked", "")
			}
		}
		target = n
		return nil
	})
	if err != nil {
		return err
	}
	return h.doc.dispatch(ctx, Event{Type: EventClick, Node: target})
}

func (h *Handle) Fill(ctx context.Context, value string) error {
	var target *html.Node
	err := h.write(ctx, func(n *html.Node) error {
		if !isFillable(n) {
			return fmt.Errorf("element %s is not a fillable input", h.expr)
		}
		if hasAttr(n, "disabled") || hasAttr(n, "readonly") {
			return fmt.Errorf("element %s is not editable", h.expr)
		}
		setValue(n, value)
		target = n
		return nil
	})
	if err != nil {
		return err
	}
	return h.doc.dispatch(ctx, Event{Type: EventInput, Node: target, Value: value})
}

func (h *Handle) Clear(ctx context.Context) error {
	return h.Fill(ctx, "")
}

func (h *Handle) Text(ctx context.Context) (string, error) {
	var text string
	err := h.read(ctx, func(n *html.Node) error {
		text = htmlquery.InnerText(n)
		return nil
	})
	return text, err
}

func (h *Handle) InputValue(ctx context.Context) (string, error) {
	var value string
	err := h.read(ctx, func(n *html.Node) error {
		switch {
		case isTag(n, "input"):
			value = attr(n, "value")
		case isTag(n, "textarea"):
			value = htmlquery.InnerText(n)
		case isTag(n, "select"):
			value = selectedValue(n)
		default:
			return fmt.Errorf("element %s is not an input, textarea or select", h.expr)
		}
		return nil
	})
	return value, err
}

func (h *Handle) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value   string
		present bool
	)
	err := h.read(ctx, func(n *html.Node) error {
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, name) {
				value, present = a.Val, true
				break
			}
		}
		return nil
	})
	return value, present, err
}

func (h *Handle) IsVisible(ctx context.Context) (bool, error) {
	var visible bool
	err := h.read(ctx, func(n *html.Node) error {
		visible = isVisible(n)
		return nil
	})
	if errors.Is(err, element.ErrNotFound) {
		return false, nil
	}
	return visible, err
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
		timeout = h.doc.pollInterval
	}
	return action.Poll(ctx, h.doc.pollInterval, timeout, func(ctx context.Context) (bool, error) {
		visible, err := h.IsVisible(ctx)
		if err != nil {
			return false, err
		}
		return visible == want, nil
	})
}

func (h *Handle) SetFiles(ctx context.Context, paths ...string) error {
	var target *html.Node
	err := h.write(ctx, func(n *html.Node) error {
		if !isTag(n, "input") || !strings.EqualFold(attr(n, "type"), "file") {
			return fmt.Errorf("element %s is not a file input", h.expr)
		}
		h.doc.files[n] = append([]string(nil), paths...)
		target = n
		return nil
	})
	if err != nil {
		return err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return h.doc.dispatch(ctx, Event{Type: EventChange, Node: target, Value: strings.Join(names, ",")})
}

func (h *Handle) SelectOption(ctx context.Context, value string) error {
	var (
		target   *html.Node
		selected string
	)
	err := h.write(ctx, func(n *html.Node) error {
		if !isTag(n, "select") {
			return fmt.Errorf("element %s is not a select", h.expr)
		}
		options := optionsOf(n)
		var match *html.Node
		for _, opt := range options {
			if optionValue(opt) == value || strings.TrimSpace(htmlquery.InnerText(opt)) == value {
				match = opt
				break
			}
		}
		if match == nil {
			return fmt.Errorf("option %q not found in %s", value, h.expr)
		}
		if hasAttr(match, "disabled") {
			return fmt.Errorf("option %q in %s is disabled", value, h.expr)
		}
		for _, opt := range options {
			removeAttr(opt, "selected")
		}
		setAttr(match, "selected", "")
		target, selected = n, optionValue(match)
		return nil
	})
	if err != nil {
		return err
	}
	return h.doc.dispatch(ctx, Event{Type: EventChange, Node: target, Value: selected})
}

func (h *Handle) read(ctx context.Context, fn func(n *html.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.doc.mu.RLock()
	defer h.doc.mu.RUnlock()
	n, err := h.doc.query(h.expr)
	if err != nil {
		return err
	}
	return fn(n)
}

func (h *Handle) write(ctx context.Context, fn func(n *html.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.doc.mu.Lock()
	defer h.doc.mu.Unlock()
	n, err := h.doc.query(h.expr)
	if err != nil {
		return err
	}
	return fn(n)
}
