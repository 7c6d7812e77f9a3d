// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Action() ActionConfig
	Discovery() DiscoveryConfig
	Verify() VerifyConfig
	Fill() FillConfig
	Target() TargetConfig
	Resumes() ResumesConfig
	Runner() RunnerConfig
	Report() ReportConfig
	Database() DatabaseConfig

	SetBrowserDriver(string)
	SetBrowserHeadless(bool)
	SetRunnerTags([]string)
	SetRunnerConcurrency(int)
	SetReportOutput(format, output string)
}

// Config holds the entire application configuration. Fields are exported so
// viper can populate them; callers go through the getter methods.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	ActionCfg    ActionConfig    `mapstructure:"action" yaml:"action"`
	DiscoveryCfg DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	VerifyCfg    VerifyConfig    `mapstructure:"verify" yaml:"verify"`
	FillCfg      FillConfig      `mapstructure:"fill" yaml:"fill"`
	TargetCfg    TargetConfig    `mapstructure:"target" yaml:"target"`
	ResumesCfg   ResumesConfig   `mapstructure:"resumes" yaml:"resumes"`
	RunnerCfg    RunnerConfig    `mapstructure:"runner" yaml:"runner"`
	ReportCfg    ReportConfig    `mapstructure:"report" yaml:"report"`
	DatabaseCfg  DatabaseConfig  `mapstructure:"database" yaml:"database"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Action() ActionConfig       { return c.ActionCfg }
func (c *Config) Discovery() DiscoveryConfig { return c.DiscoveryCfg }
func (c *Config) Verify() VerifyConfig       { return c.VerifyCfg }
func (c *Config) Fill() FillConfig           { return c.FillCfg }
func (c *Config) Target() TargetConfig       { return c.TargetCfg }
func (c *Config) Resumes() ResumesConfig     { return c.ResumesCfg }
func (c *Config) Runner() RunnerConfig       { return c.RunnerCfg }
func (c *Config) Report() ReportConfig       { return c.ReportCfg }
func (c *Config) Database() DatabaseConfig   { return c.DatabaseCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserDriver(d string)    { c.BrowserCfg.Driver = d }
func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetRunnerTags(tags []string)  { c.RunnerCfg.Tags = tags }
func (c *Config) SetRunnerConcurrency(n int)   { c.RunnerCfg.Concurrency = n }
func (c *Config) SetReportOutput(format, output string) {
	c.ReportCfg.Format = format
	c.ReportCfg.Output = output
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Supported browser drivers.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
	DriverSnapshot   = "snapshot"
)

// BrowserConfig holds settings for the browser instances backing each scenario.
type BrowserConfig struct {
	Driver            string         `mapstructure:"driver" yaml:"driver"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Debug             bool           `mapstructure:"debug" yaml:"debug"`
}

// ActionConfig is the retry policy shared by every resilient action.
type ActionConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseBackoff   time.Duration `mapstructure:"base_backoff" yaml:"base_backoff"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SettleTime    time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout" yaml:"settle_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// DiscoveryConfig tunes required-field discovery.
type DiscoveryConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LabelTimeout    time.Duration `mapstructure:"label_timeout" yaml:"label_timeout"`
	RequireSelects  bool          `mapstructure:"require_selects" yaml:"require_selects"`
	DuplicatePolicy string        `mapstructure:"duplicate_policy" yaml:"duplicate_policy"`
}

// VerifyConfig drives the validation-message assertions. ErrorMessages keys
// are stored lower-cased.
type VerifyConfig struct {
	ErrorTimeout  time.Duration     `mapstructure:"error_timeout" yaml:"error_timeout"`
	SelectMessage string            `mapstructure:"select_message" yaml:"select_message"`
	ErrorMessages map[string]string `mapstructure:"error_messages" yaml:"error_messages"`
}

// FillConfig maps field labels to the values typed into them.
type FillConfig struct {
	Values  map[string]string `mapstructure:"values" yaml:"values"`
	Default string            `mapstructure:"default" yaml:"default"`
}

// TargetConfig describes the site under test.
type TargetConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	JobsPath   string `mapstructure:"jobs_path" yaml:"jobs_path"`
	SearchTerm string `mapstructure:"search_term" yaml:"search_term"`
	Username   string `mapstructure:"username" yaml:"-"`
	Password   string `mapstructure:"password" yaml:"-"`
}

// ResumesConfig locates the resume fixtures uploaded by the scenarios.
type ResumesConfig struct {
	Dir              string `mapstructure:"dir" yaml:"dir"`
	Valid            string `mapstructure:"valid" yaml:"valid"`
	Oversized        string `mapstructure:"oversized" yaml:"oversized"`
	OversizedMessage string `mapstructure:"oversized_message" yaml:"oversized_message"`
}

// RunnerConfig controls scenario selection and parallelism.
type RunnerConfig struct {
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`
	Tags            []string      `mapstructure:"tags" yaml:"tags"`
	ScenarioTimeout time.Duration `mapstructure:"scenario_timeout" yaml:"scenario_timeout"`
}

// ReportConfig selects the report writer.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DatabaseConfig holds the database connection details. An empty URL
// disables run persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	cfg.lowerTableKeys()
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "applyflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.viewport", map[string]int{"width": 1366, "height": 900})

	// -- Action --
	v.SetDefault("action.max_attempts", 3)
	v.SetDefault("action.base_backoff", "1s")
	v.SetDefault("action.timeout", "30s")
	v.SetDefault("action.settle_time", "2s")
	v.SetDefault("action.settle_timeout", "10s")
	v.SetDefault("action.poll_interval", "100ms")

	// -- Discovery --
	v.SetDefault("discovery.poll_interval", "100ms")
	v.SetDefault("discovery.timeout", "30s")
	v.SetDefault("discovery.label_timeout", "2s")
	v.SetDefault("discovery.require_selects", true)
	v.SetDefault("discovery.duplicate_policy", "positional")

	// -- Verify --
	v.SetDefault("verify.error_timeout", "30s")
	v.SetDefault("verify.select_message", "Please enter a valid answer")
	v.SetDefault("verify.error_messages", map[string]string{
		"Mobile phone number": "Enter a valid phone number",
		"Phone":               "Enter a valid phone number",
	})

	// -- Fill --
	v.SetDefault("fill.default", "Sample Data")
	v.SetDefault("fill.values", map[string]string{
		"Mobile Phone Number": "0312345678",
		"Phone":               "0312345678",
		"First Name":          "John",
		"Last Name":           "Doe",
	})

	// -- Target --
	v.SetDefault("target.jobs_path", "/jobs")
	v.SetDefault("target.search_term", "Quality Analyst (Manual/Automation Tester - QA QC)")

	// -- Resumes --
	v.SetDefault("resumes.dir", "resources/sample-files")
	v.SetDefault("resumes.valid", "sample-resume.pdf")
	v.SetDefault("resumes.oversized", "sample-resume-2mb.pdf")
	v.SetDefault("resumes.oversized_message", "Please upload a smaller file (2 MB or less). Change file")

	// -- Runner --
	v.SetDefault("runner.concurrency", 1)
	v.SetDefault("runner.tags", []string{"@apply"})
	v.SetDefault("runner.scenario_timeout", "5m")

	// -- Report --
	v.SetDefault("report.format", "junit")
	v.SetDefault("report.output", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Credentials keep the variable names the suite has always used.
	v.BindEnv("target.username", "UI_LOGIN_USERNAME")
	v.BindEnv("target.password", "UI_LOGIN_PASSWORD")
	v.BindEnv("target.base_url", "UI_BASE_URL")
	v.BindEnv("database.url", "APPLYFLOW_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.TargetCfg.Username == "" {
		cfg.TargetCfg.Username = os.Getenv("UI_LOGIN_USERNAME")
	}
	if cfg.TargetCfg.Password == "" {
		cfg.TargetCfg.Password = os.Getenv("UI_LOGIN_PASSWORD")
	}

	cfg.lowerTableKeys()
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// lowerTableKeys lower-cases the label keys of the message and fill tables.
// Defaults and values set in code reach Unmarshal with their original case.
func (c *Config) lowerTableKeys() {
	c.VerifyCfg.ErrorMessages = lowerKeys(c.VerifyCfg.ErrorMessages)
	c.FillCfg.Values = lowerKeys(c.FillCfg.Values)
}

func lowerKeys(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

func (c *Config) expandPaths() error {
	dir, err := homedir.Expand(c.ResumesCfg.Dir)
	if err != nil {
		return fmt.Errorf("failed to expand resumes.dir: %w", err)
	}
	c.ResumesCfg.Dir = dir

	logFile, err := homedir.Expand(c.LoggerCfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand logger.log_file: %w", err)
	}
	c.LoggerCfg.LogFile = logFile
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.BrowserCfg.Driver {
	case DriverChromedp, DriverPlaywright, DriverSnapshot:
	default:
		return fmt.Errorf("browser.driver must be one of %s, %s, %s", DriverChromedp, DriverPlaywright, DriverSnapshot)
	}
	if err := c.ActionCfg.Validate(); err != nil {
		return fmt.Errorf("action configuration invalid: %w", err)
	}
	if err := c.DiscoveryCfg.Validate(); err != nil {
		return fmt.Errorf("discovery configuration invalid: %w", err)
	}
	if c.RunnerCfg.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	return nil
}

// Validate checks the retry policy.
func (a *ActionConfig) Validate() error {
	if a.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be a positive integer")
	}
	if a.BaseBackoff < 0 {
		return fmt.Errorf("base_backoff must not be negative")
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if a.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	return nil
}

// Validate checks the discovery settings.
func (d *DiscoveryConfig) Validate() error {
	if d.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	switch strings.ToLower(d.DuplicatePolicy) {
	case "positional", "reject", "last_wins":
	default:
		return fmt.Errorf("duplicate_policy must be one of positional, reject, last_wins")
	}
	return nil
}

// ResumePath joins a resume file name onto the configured fixture directory.
func (r ResumesConfig) ResumePath(name string) string {
	return filepath.Join(r.Dir, name)
}
