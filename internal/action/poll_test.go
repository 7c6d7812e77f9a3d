// internal/action/poll_test.go
package action_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/config"
)

func TestPoll_ImmediateSuccess(t *testing.T) {
	var calls atomic.Int32
	err := action.Poll(context.Background(), time.Hour, time.Second, func(context.Context) (bool, error) {
		calls.Add(1)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoll_EventuallyTrue(t *testing.T) {
	var calls atomic.Int32
	err := action.Poll(context.Background(), time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return calls.Add(1) >= 4, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestPoll_Timeout(t *testing.T) {
	err := action.Poll(context.Background(), time.Millisecond, 15*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, action.ErrPollTimeout)
}

func TestPoll_ChecksAgainAtDeadline(t *testing.T) {
	// Ticks land at 0, 40ms and 80ms; the next one would miss the deadline.
	start := time.Now()
	var calls atomic.Int32
	err := action.Poll(context.Background(), 40*time.Millisecond, 100*time.Millisecond, func(context.Context) (bool, error) {
		calls.Add(1)
		return time.Since(start) >= 90*time.Millisecond, nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestPoll_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := action.Poll(ctx, time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll_ConditionError(t *testing.T) {
	boom := errors.New("detached")
	err := action.Poll(context.Background(), time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPolicy_Backoff(t *testing.T) {
	p := action.DefaultPolicy()
	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 5*time.Second, p.Backoff(5))
}

func TestPolicyFromConfig(t *testing.T) {
	p := action.PolicyFromConfig(config.ActionConfig{MaxAttempts: 5, BaseBackoff: 250 * time.Millisecond})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.BaseBackoff)
	assert.Equal(t, 30*time.Second, p.Timeout, "zero timeout falls back to default")
	assert.Equal(t, 100*time.Millisecond, p.PollInterval)

	assert.Equal(t, 3, action.PolicyFromConfig(config.ActionConfig{}).MaxAttempts)
}

func TestError_Message(t *testing.T) {
	cause := errors.New("element detached")
	err := &action.Error{Description: "click Easy Apply filter", Attempts: 3, Cause: cause}
	assert.Equal(t, "failed to click Easy Apply filter after 3 attempt(s): element detached", err.Error())
	assert.ErrorIs(t, err, cause)

	mm := &action.MismatchError{Subject: "value", Expected: "a", Actual: "b"}
	assert.Equal(t, `value mismatch. expected: "a", got: "b"`, mm.Error())
}
