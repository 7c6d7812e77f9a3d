// internal/fields/wait.go
package fields

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// WaitForChildren polls until root has at least one match for selector.
// A failed count counts as zero matches. The deadline returns a
// *DiscoveryTimeoutError.
func WaitForChildren(ctx context.Context, root element.Handle, selector string, interval, timeout time.Duration) error {
	children := root.Locate(selector)
	err := action.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		n, err := children.Count(ctx)
		if err != nil {
			return false, nil
		}
		return n > 0, nil
	})
	if errors.Is(err, action.ErrPollTimeout) {
		return &DiscoveryTimeoutError{Selector: selector, Timeout: timeout}
	}
	return err
}
