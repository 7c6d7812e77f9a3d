// internal/action/poll.go
package action

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Condition is evaluated by Poll. Returning (false, nil) keeps polling; an
// error stops the poll and is returned as is.
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates cond immediately and then once per interval until it holds,
// fails, or timeout elapses. The condition is evaluated one last time when the
// deadline passes. A parent cancellation returns the context error; the poll's
// own deadline returns ErrPollTimeout.
func Poll(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(pollCtx); err != nil {
			// Wait fails as soon as the next token would land past the
			// deadline, which can be up to one interval early.
			<-pollCtx.Done()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return finalCheck(ctx, interval, cond)
		}
		ok, err := cond(pollCtx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if pollCtx.Err() != nil {
				return ErrPollTimeout
			}
			return err
		}
		if ok {
			return nil
		}
	}
}

func finalCheck(ctx context.Context, interval time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()
	if ok, err := cond(checkCtx); err == nil && ok {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrPollTimeout
}
