// internal/browser/session/context_utils.go
package session

import (
	"context"
)

// CombineContext derives a context from tab, which carries the CDP target,
// that is also cancelled when op ends. chromedp needs the tab's values while
// the caller's op context carries the deadline.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancelCause(tab)
	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})
	return combined, func() {
		stop()
		cancel(context.Canceled)
	}
}
