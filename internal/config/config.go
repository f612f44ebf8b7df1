// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Eval    EvalConfig    `mapstructure:"evaluation" yaml:"evaluation"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch"`
}

// LoggerConfig configures the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig configures the Chrome allocator and page contexts.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	DeviceScaleFactor float64       `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// PostLoadWait gives the page a quiet period after navigation before
	// the first capture.
	PostLoadWait time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	IgnoreTLS    bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
}

// AgentConfig selects and configures the decision source.
type AgentConfig struct {
	// Kind is one of "human", "terminal", "model".
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Model settings apply when Kind is "model". BaseURL points at any
	// OpenAI-compatible endpoint.
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
	// HistoryN bounds how many prior turns the model agent replays.
	HistoryN int `mapstructure:"history_n" yaml:"history_n"`
}

// EvalConfig bounds a single evaluation session.
type EvalConfig struct {
	MaxSteps        int           `mapstructure:"max_steps" yaml:"max_steps"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SaveScreenshots bool          `mapstructure:"save_screenshots" yaml:"save_screenshots"`
	ScreenshotDir   string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	// PollValidator enables the per-step structured check for early
	// success exit when the task carries a cheap structured goal.
	PollValidator bool `mapstructure:"poll_validator" yaml:"poll_validator"`
}

// BatchConfig bounds the batch layer.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// StartsPerSecond paces session launches; zero disables pacing.
	StartsPerSecond float64 `mapstructure:"starts_per_second" yaml:"starts_per_second"`
	OutputDir       string  `mapstructure:"output_dir" yaml:"output_dir"`
}

// Default returns a fully populated configuration matching the documented
// defaults.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "webeval",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
			Colors: ColorConfig{
				Debug: "cyan", Info: "green", Warn: "yellow",
				Error: "red", DPanic: "magenta", Panic: "magenta", Fatal: "red",
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    720,
			DeviceScaleFactor: 1.0,
			NavigationTimeout: 30 * time.Second,
			PostLoadWait:      200 * time.Millisecond,
		},
		Agent: AgentConfig{
			Kind:     "terminal",
			HistoryN: 3,
		},
		Eval: EvalConfig{
			MaxSteps:        50,
			Timeout:         5 * time.Minute,
			SaveScreenshots: true,
			ScreenshotDir:   "logs/screenshots",
			PollValidator:   true,
		},
		Batch: BatchConfig{
			Concurrency: 2,
			OutputDir:   "results",
		},
	}
}

// SetDefaults registers the default values on a viper instance so config
// files and environment variables only need to override what differs.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.viewport_width", d.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", d.Browser.ViewportHeight)
	v.SetDefault("browser.device_scale_factor", d.Browser.DeviceScaleFactor)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)
	v.SetDefault("browser.post_load_wait", d.Browser.PostLoadWait)
	v.SetDefault("agent.kind", d.Agent.Kind)
	v.SetDefault("agent.history_n", d.Agent.HistoryN)
	v.SetDefault("evaluation.max_steps", d.Eval.MaxSteps)
	v.SetDefault("evaluation.timeout", d.Eval.Timeout)
	v.SetDefault("evaluation.save_screenshots", d.Eval.SaveScreenshots)
	v.SetDefault("evaluation.screenshot_dir", d.Eval.ScreenshotDir)
	v.SetDefault("evaluation.poll_validator", d.Eval.PollValidator)
	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
	v.SetDefault("batch.output_dir", d.Batch.OutputDir)
}

// Validate rejects configurations that cannot drive a session.
func (c Config) Validate() error {
	if c.Browser.DeviceScaleFactor <= 0 {
		return fmt.Errorf("browser.device_scale_factor must be positive, got %v", c.Browser.DeviceScaleFactor)
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Eval.MaxSteps <= 0 {
		return fmt.Errorf("evaluation.max_steps must be positive, got %d", c.Eval.MaxSteps)
	}
	if c.Eval.Timeout <= 0 {
		return fmt.Errorf("evaluation.timeout must be positive, got %v", c.Eval.Timeout)
	}
	switch c.Agent.Kind {
	case "human", "terminal", "model":
	default:
		return fmt.Errorf("agent.kind must be one of human, terminal, model; got %q", c.Agent.Kind)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	return nil
}
