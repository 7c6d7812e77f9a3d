// internal/pages/components/navigation.go
package components

import (
	"context"
	"fmt"
	"net/url"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Navigation opens URLs relative to the target's base URL.
type Navigation struct {
	page    element.Page
	exec    *action.Executor
	baseURL string
}

func NewNavigation(page element.Page, exec *action.Executor, baseURL string) *Navigation {
	return &Navigation{page: page, exec: exec, baseURL: baseURL}
}

// Resolve turns ref into an absolute URL. Absolute references pass through.
func (n *Navigation) Resolve(ref string) (string, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if target.IsAbs() || n.baseURL == "" {
		return target.String(), nil
	}
	base, err := url.Parse(n.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", n.baseURL, err)
	}
	return base.ResolveReference(target).String(), nil
}

// NavigateToURL opens ref, retrying per the executor policy.
func (n *Navigation) NavigateToURL(ctx context.Context, ref, desc string) error {
	u, err := n.Resolve(ref)
	if err != nil {
		return err
	}
	if desc == "" {
		desc = "navigate to " + u
	}
	return n.exec.Navigate(ctx, n.page, u, desc)
}
