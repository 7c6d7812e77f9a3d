// internal/pages/components/element.go
// Package components holds the small page helpers shared by every page
// object: element waits, dropdown handling and navigation.
package components

import (
	"context"
	"time"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/fields"
)

// ElementHandler waits on element state.
type ElementHandler struct {
	exec         *action.Executor
	pollInterval time.Duration
	timeout      time.Duration
}

// NewElementHandler uses the executor policy for poll cadence and default timeout.
func NewElementHandler(exec *action.Executor) *ElementHandler {
	p := exec.Policy()
	return &ElementHandler{exec: exec, pollInterval: p.PollInterval, timeout: p.Timeout}
}

// WaitForVisible fails unless h becomes visible within timeout. A zero
// timeout uses the policy timeout.
func (e *ElementHandler) WaitForVisible(ctx context.Context, h element.Handle, desc string, timeout time.Duration) error {
	return e.exec.WaitVisible(ctx, h, desc, timeout)
}

// WaitUntilHasChildElements polls until parent has at least one match for
// childSelector. A zero timeout uses the policy timeout.
func (e *ElementHandler) WaitUntilHasChildElements(ctx context.Context, parent element.Handle, childSelector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = e.timeout
	}
	return fields.WaitForChildren(ctx, parent, childSelector, e.pollInterval, timeout)
}
