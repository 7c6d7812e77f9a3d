// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, DriverChromedp, cfg.Browser().Driver)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 3, cfg.Action().MaxAttempts)
	assert.Equal(t, time.Second, cfg.Action().BaseBackoff)
	assert.Equal(t, 30*time.Second, cfg.Action().Timeout)
	assert.Equal(t, 2*time.Second, cfg.Action().SettleTime)
	assert.Equal(t, 100*time.Millisecond, cfg.Discovery().PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Discovery().Timeout)
	assert.Equal(t, "Please enter a valid answer", cfg.Verify().SelectMessage)
	assert.Equal(t, "Sample Data", cfg.Fill().Default)
	assert.Equal(t, "/jobs", cfg.Target().JobsPath)
	assert.Equal(t, 1, cfg.Runner().Concurrency)
	assert.Equal(t, []string{"@apply"}, cfg.Runner().Tags)
	assert.Empty(t, cfg.Database().URL)
}

func TestDefaultMessageTables(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "Enter a valid phone number", cfg.Verify().ErrorMessages["phone"])
	assert.Equal(t, "0312345678", cfg.Fill().Values["mobile phone number"])
	assert.NotContains(t, cfg.Fill().Values, "Mobile Phone Number")

	t.Run("values set in code", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("fill.values", map[string]string{"Years Of Experience": "5"})
		v.Set("verify.error_messages", map[string]string{"Email Address": "Enter a valid email"})

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"years of experience": "5"}, cfg.Fill().Values)
		assert.Equal(t, "Enter a valid email", cfg.Verify().ErrorMessages["email address"])
	})
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate(), "A valid config should not produce a validation error")

		badDriver := *cfg
		badDriver.BrowserCfg.Driver = "selenium"
		err := badDriver.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "browser.driver must be one of")

		badRunner := *cfg
		badRunner.RunnerCfg.Concurrency = 0
		err = badRunner.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "runner.concurrency must be a positive integer")
	})

	t.Run("Action Validation", func(t *testing.T) {
		valid := ActionConfig{MaxAttempts: 3, BaseBackoff: time.Second, Timeout: time.Second, PollInterval: time.Millisecond}
		assert.NoError(t, valid.Validate())

		zeroAttempts := valid
		zeroAttempts.MaxAttempts = 0
		err := zeroAttempts.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_attempts must be a positive integer")

		negativeBackoff := valid
		negativeBackoff.BaseBackoff = -time.Second
		err = negativeBackoff.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "base_backoff must not be negative")

		noTimeout := valid
		noTimeout.Timeout = 0
		assert.Error(t, noTimeout.Validate())
	})

	t.Run("Discovery Validation", func(t *testing.T) {
		valid := DiscoveryConfig{PollInterval: time.Millisecond, Timeout: time.Second, DuplicatePolicy: "reject"}
		assert.NoError(t, valid.Validate())

		badPolicy := valid
		badPolicy.DuplicatePolicy = "merge"
		err := badPolicy.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate_policy must be one of")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
browser:
  driver: playwright
action:
  max_attempts: 5
  base_backoff: 250ms
runner:
  concurrency: 2
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, DriverPlaywright, cfg.Browser().Driver)
		assert.Equal(t, 5, cfg.Action().MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Action().BaseBackoff)
		assert.Equal(t, 2, cfg.Runner().Concurrency)
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("action.max_attempts", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "max_attempts must be a positive integer")
	})

	t.Run("Credential Environment Binding", func(t *testing.T) {
		t.Setenv("UI_LOGIN_USERNAME", "qa@example.com")
		t.Setenv("UI_LOGIN_PASSWORD", "hunter2")
		t.Setenv("UI_BASE_URL", "https://jobs.example.com")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "qa@example.com", cfg.Target().Username)
		assert.Equal(t, "hunter2", cfg.Target().Password)
		assert.Equal(t, "https://jobs.example.com", cfg.Target().BaseURL)
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		defer func() { homedir.DisableCache = false }()

		v := viper.New()
		SetDefaults(v)
		v.Set("resumes.dir", "~/resumes")
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(home, "resumes"), cfg.Resumes().Dir)
		assert.Equal(t, filepath.Join(home, "resumes", "cv.pdf"), cfg.Resumes().ResumePath("cv.pdf"))
	})
}

// -- Setter Tests --

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	var iface Interface = cfg

	iface.SetBrowserDriver(DriverSnapshot)
	iface.SetBrowserHeadless(false)
	iface.SetRunnerTags([]string{"@apply_1_002"})
	iface.SetRunnerConcurrency(4)
	iface.SetReportOutput("json", "out.json")

	assert.Equal(t, DriverSnapshot, iface.Browser().Driver)
	assert.False(t, iface.Browser().Headless)
	assert.Equal(t, []string{"@apply_1_002"}, iface.Runner().Tags)
	assert.Equal(t, 4, iface.Runner().Concurrency)
	assert.Equal(t, ReportConfig{Format: "json", Output: "out.json"}, iface.Report())
}
