// internal/action/executor.go
// Package action performs single UI operations against an element.Handle with
// bounded retry, linear backoff, post-action verification and structured
// logging of every attempt.
package action

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Outcome describes a successful action.
type Outcome struct {
	// Value is the text or value observed by the action, if any.
	Value    string
	Attempts int
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs actions under one Policy. It holds no per-call state and may
// be shared by the page objects of a single scenario.
type Executor struct {
	policy   Policy
	logger   *zap.Logger
	recorder Recorder
	sleep    SleepFunc
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithRecorder forwards every attempt record to r.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// WithSleeper replaces the backoff and settle sleep. Tests use it to observe
// waits without spending wall-clock time.
func WithSleeper(fn SleepFunc) Option {
	return func(e *Executor) { e.sleep = fn }
}

// WithClock replaces the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor. A nil logger is replaced by a no-op logger.
func New(logger *zap.Logger, policy Policy, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		policy: policy.normalize(),
		logger: logger.Named("action"),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's policy.
func (e *Executor) Policy() Policy { return e.policy }

// WithPolicy returns a copy of e that runs under p and shares e's logger,
// recorder and sleeper.
func (e *Executor) WithPolicy(p Policy) *Executor {
	c := *e
	c.policy = p.normalize()
	return &c
}

// Click waits for h to be visible and clicks it.
func (e *Executor) Click(ctx context.Context, h element.Handle, desc string) error {
	_, err := e.Run(ctx, "click", desc, nil, func(ctx context.Context) (string, error) {
		if err := h.WaitVisible(ctx, e.policy.Timeout); err != nil {
			return "", err
		}
		return "", h.Click(ctx)
	})
	return err
}

// Fill waits for h, clears it, fills value and reads the value back. A
// read-back that differs from value fails the attempt with a *MismatchError.
func (e *Executor) Fill(ctx context.Context, h element.Handle, value, desc string) error {
	return e.fill(ctx, h, value, desc, value)
}

// FillSecret is Fill without the value in logs and records.
func (e *Executor) FillSecret(ctx context.Context, h element.Handle, value, desc string) error {
	return e.fill(ctx, h, value, desc, "***")
}

func (e *Executor) fill(ctx context.Context, h element.Handle, value, desc, logged string) error {
	fields := map[string]string{"value": logged}
	_, err := e.Run(ctx, "fill", desc, fields, func(ctx context.Context) (string, error) {
		if err := h.WaitVisible(ctx, e.policy.Timeout); err != nil {
			return "", err
		}
		if err := h.Clear(ctx); err != nil {
			return "", fmt.Errorf("clear: %w", err)
		}
		if err := h.Fill(ctx, value); err != nil {
			return "", err
		}
		actual, err := h.InputValue(ctx)
		if err != nil {
			return "", fmt.Errorf("read back: %w", err)
		}
		if actual != value {
			if logged != value {
				return "", &MismatchError{Subject: "value", Expected: logged, Actual: fmt.Sprintf("<%d chars>", len(actual))}
			}
			return "", &MismatchError{Subject: "value", Expected: value, Actual: actual}
		}
		return actual, nil
	})
	return err
}

// ReadText waits for h and returns its text. The text is returned as read,
// including the empty string.
func (e *Executor) ReadText(ctx context.Context, h element.Handle, desc string) (string, error) {
	out, err := e.Run(ctx, "read_text", desc, nil, func(ctx context.Context) (string, error) {
		if err := h.WaitVisible(ctx, e.policy.Timeout); err != nil {
			return "", err
		}
		return h.Text(ctx)
	})
	return out.Value, err
}

// SelectOption waits for a select element, picks the option with value and
// verifies the selection.
func (e *Executor) SelectOption(ctx context.Context, h element.Handle, value, desc string) error {
	fields := map[string]string{"value": value}
	_, err := e.Run(ctx, "select", desc, fields, func(ctx context.Context) (string, error) {
		if err := h.WaitVisible(ctx, e.policy.Timeout); err != nil {
			return "", err
		}
		if err := h.SelectOption(ctx, value); err != nil {
			return "", err
		}
		actual, err := h.InputValue(ctx)
		if err != nil {
			return "", fmt.Errorf("read back: %w", err)
		}
		if actual != value {
			return "", &MismatchError{Subject: "selected value", Expected: value, Actual: actual}
		}
		return actual, nil
	})
	return err
}

// UploadOption configures UploadFile.
type UploadOption func(*uploadOptions)

type uploadOptions struct {
	signal element.Handle
}

// WithSettleSignal makes UploadFile poll for signal to become visible instead
// of sleeping the fixed settle time.
func WithSettleSignal(signal element.Handle) UploadOption {
	return func(o *uploadOptions) { o.signal = signal }
}

// UploadFile sets path on a file input and waits for the upload to settle.
func (e *Executor) UploadFile(ctx context.Context, h element.Handle, path, desc string, opts ...UploadOption) error {
	var o uploadOptions
	for _, opt := range opts {
		opt(&o)
	}
	fields := map[string]string{"file": path}
	_, err := e.Run(ctx, "upload", desc, fields, func(ctx context.Context) (string, error) {
		if err := h.SetFiles(ctx, path); err != nil {
			return "", err
		}
		if o.signal == nil {
			return path, e.sleep(ctx, e.policy.SettleTime)
		}
		err := Poll(ctx, e.policy.PollInterval, e.policy.SettleTimeout, func(ctx context.Context) (bool, error) {
			visible, err := o.signal.IsVisible(ctx)
			if err != nil {
				return false, nil
			}
			return visible, nil
		})
		if err != nil {
			return "", fmt.Errorf("upload did not settle (%s): %w", o.signal, err)
		}
		return path, nil
	})
	return err
}

// Navigate loads url and waits the settle time.
func (e *Executor) Navigate(ctx context.Context, page element.Page, url, desc string) error {
	fields := map[string]string{"url": url}
	_, err := e.Run(ctx, "navigate", desc, fields, func(ctx context.Context) (string, error) {
		if err := page.Navigate(ctx, url); err != nil {
			return "", err
		}
		return url, e.sleep(ctx, e.policy.SettleTime)
	})
	return err
}

// Press dispatches key to the page. It is not retried since a repeated key
// press is not idempotent.
func (e *Executor) Press(ctx context.Context, page element.Page, key, desc string) error {
	fields := map[string]string{"key": key}
	_, err := e.WithPolicy(Policy{MaxAttempts: 1, Timeout: e.policy.Timeout, PollInterval: e.policy.PollInterval}).
		Run(ctx, "press", desc, fields, func(ctx context.Context) (string, error) {
			return key, page.Press(ctx, key)
		})
	return err
}

// WaitVisible is a single visibility wait with no retry layer.
func (e *Executor) WaitVisible(ctx context.Context, h element.Handle, desc string, timeout time.Duration) error {
	return e.waitState(ctx, desc, timeout, "visible", h.WaitVisible)
}

// WaitHidden is a single wait for h to be hidden or absent.
func (e *Executor) WaitHidden(ctx context.Context, h element.Handle, desc string, timeout time.Duration) error {
	return e.waitState(ctx, desc, timeout, "hidden", h.WaitHidden)
}

func (e *Executor) waitState(ctx context.Context, desc string, timeout time.Duration, state string, wait func(context.Context, time.Duration) error) error {
	if timeout <= 0 {
		timeout = e.policy.Timeout
	}
	fields := map[string]string{"timeout": timeout.String()}
	rec := Record{Action: "wait_" + state, Description: desc, Context: fields}

	e.emit(zapcore.InfoLevel, fmt.Sprintf("Waiting for %s to be %s", desc, state), rec, nil)
	if err := wait(ctx, timeout); err != nil {
		e.emit(zapcore.ErrorLevel, fmt.Sprintf("%s did not become %s", desc, state), rec, err)
		return fmt.Errorf("%s did not become %s within %s: %w", desc, state, timeout, err)
	}
	e.emit(zapcore.InfoLevel, fmt.Sprintf("%s is now %s", desc, state), rec, nil)
	return nil
}

// Run is the retry loop behind every action. op is attempted up to
// MaxAttempts times; after failed attempt i the executor waits i×BaseBackoff.
// The returned error is an *Error carrying the final attempt's cause.
func (e *Executor) Run(ctx context.Context, kind, desc string, fields map[string]string, op func(ctx context.Context) (string, error)) (Outcome, error) {
	maxAttempts := e.policy.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rec := Record{Action: kind, Description: desc, Attempt: attempt, MaxAttempts: maxAttempts, Context: fields}

		if err := ctx.Err(); err != nil {
			return Outcome{}, e.abort(desc, attempt-1, err, lastErr)
		}

		e.emit(zapcore.InfoLevel, "Attempting to "+desc, rec, nil)
		value, err := op(ctx)
		if err == nil {
			e.emit(zapcore.InfoLevel, "Successfully completed: "+desc, rec, nil)
			return Outcome{Value: value, Attempts: attempt}, nil
		}
		lastErr = err
		e.emit(zapcore.WarnLevel, fmt.Sprintf("Attempt %d to %s failed", attempt, desc), rec, err)

		if attempt == maxAttempts {
			break
		}
		if err := e.sleep(ctx, e.policy.Backoff(attempt)); err != nil {
			return Outcome{}, e.abort(desc, attempt, err, lastErr)
		}
	}

	e.emit(zapcore.ErrorLevel, fmt.Sprintf("Failed to %s after %d attempts", desc, maxAttempts),
		Record{Action: kind, Description: desc, Attempt: maxAttempts, MaxAttempts: maxAttempts, Context: fields}, lastErr)
	return Outcome{}, &Error{Description: desc, Attempts: maxAttempts, Cause: lastErr}
}

func (e *Executor) abort(desc string, attempts int, ctxErr, lastErr error) error {
	cause := ctxErr
	if lastErr != nil {
		cause = fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
	}
	e.logger.Warn("Action aborted", zap.String("description", desc), zap.Int("attempts", attempts), zap.Error(cause))
	return &Error{Description: desc, Attempts: attempts, Cause: cause}
}

func (e *Executor) emit(level zapcore.Level, msg string, rec Record, err error) {
	rec.Time = e.now()
	rec.Level = level.String()
	rec.Message = msg

	zfields := make([]zap.Field, 0, 5+len(rec.Context))
	zfields = append(zfields, zap.String("action", rec.Action), zap.String("description", rec.Description))
	if rec.Attempt > 0 {
		zfields = append(zfields, zap.Int("attempt", rec.Attempt), zap.Int("max_attempts", rec.MaxAttempts))
	}
	for k, v := range rec.Context {
		zfields = append(zfields, zap.String(k, v))
	}
	if err != nil {
		rec.Error = err.Error()
		zfields = append(zfields, zap.Error(err))
	}
	if ce := e.logger.Check(level, msg); ce != nil {
		ce.Write(zfields...)
	}
	if e.recorder != nil {
		e.recorder.Record(rec)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
