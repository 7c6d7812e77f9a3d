// internal/action/policy.go
package action

import (
	"time"

	"github.com/xkilldash9x/applyflow/internal/config"
)

// Policy is the retry and timing contract shared by every action an
// Executor performs. It is set once per Executor.
type Policy struct {
	// MaxAttempts bounds the attempts of a retried action. Must be positive.
	MaxAttempts int
	// BaseBackoff is multiplied by the failed attempt number to get the pause
	// before the next attempt.
	BaseBackoff time.Duration
	// Timeout bounds each visibility wait inside an attempt.
	Timeout time.Duration
	// SettleTime is the fixed pause after an upload or navigation when no
	// settle signal is available.
	SettleTime time.Duration
	// SettleTimeout bounds the poll on an upload settle signal.
	SettleTimeout time.Duration
	// PollInterval is the cadence of every polling wait.
	PollInterval time.Duration
}

// DefaultPolicy mirrors the defaults in config.SetDefaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseBackoff:   time.Second,
		Timeout:       30 * time.Second,
		SettleTime:    2 * time.Second,
		SettleTimeout: 10 * time.Second,
		PollInterval:  100 * time.Millisecond,
	}
}

// PolicyFromConfig converts the action section of the configuration.
// Zero values fall back to DefaultPolicy.
func PolicyFromConfig(cfg config.ActionConfig) Policy {
	p := Policy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseBackoff:   cfg.BaseBackoff,
		Timeout:       cfg.Timeout,
		SettleTime:    cfg.SettleTime,
		SettleTimeout: cfg.SettleTimeout,
		PollInterval:  cfg.PollInterval,
	}
	return p.normalize()
}

// Backoff is the pause after failed attempt number attempt (1-based).
// The growth is linear: attempt × BaseBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return time.Duration(attempt) * p.BaseBackoff
}

func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseBackoff < 0 {
		p.BaseBackoff = 0
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.SettleTime < 0 {
		p.SettleTime = 0
	}
	if p.SettleTimeout <= 0 {
		p.SettleTimeout = d.SettleTimeout
	}
	if p.PollInterval <= 0 {
		p.PollInterval = d.PollInterval
	}
	return p
}
