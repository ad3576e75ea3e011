// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
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

// BrowserConfig holds settings for the managed browser instance.
type BrowserConfig struct {
	// Headless runs the browser without a window. The generate command flips
	// this off in visible mode.
	Headless bool `mapstructure:"headless" yaml:"headless"`

	DisableCache    bool     `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`

	// Debug enables console-log capture on every session.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// MaxSessions caps how many pages may be open at once. The pipeline only
	// ever opens one; the cap exists so the manager stays safe if reused.
	MaxSessions int64 `mapstructure:"max_sessions" yaml:"max_sessions"`

	// ProtocolTimeout bounds every control command between the driver and the
	// browser before the connection is considered hung.
	ProtocolTimeout time.Duration `mapstructure:"protocol_timeout" yaml:"protocol_timeout"`
}

// GenerationConfig tunes the load/trigger/poll pipeline.
type GenerationConfig struct {
	// ScriptURL is where the third-party generation library is loaded from.
	ScriptURL string `mapstructure:"script_url" yaml:"script_url"`

	// Model is the generator model passed to the in-page driver.
	Model string `mapstructure:"model" yaml:"model"`

	// LibraryLoadTimeout bounds the wait for the library to become callable.
	LibraryLoadTimeout time.Duration `mapstructure:"library_load_timeout" yaml:"library_load_timeout"`

	// Timeout bounds the whole generation wait after the trigger.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// PollInterval is the cadence of the quiet poll discipline.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	// VerbosePollInterval is the cadence of the verbose (visible/debug)
	// discipline; the same Timeout still bounds the loop.
	VerbosePollInterval time.Duration `mapstructure:"verbose_poll_interval" yaml:"verbose_poll_interval"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "easel-cli")
	v.SetDefault("logger.log_file", "easel.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.max_sessions", 1)
	v.SetDefault("browser.protocol_timeout", "180s")

	// -- Generation --
	v.SetDefault("generation.script_url", "https://js.puter.com/v2/")
	v.SetDefault("generation.model", "gpt-image-1")
	v.SetDefault("generation.library_load_timeout", "30s")
	v.SetDefault("generation.timeout", "120s")
	v.SetDefault("generation.poll_interval", "1s")
	v.SetDefault("generation.verbose_poll_interval", "2s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be a positive integer")
	}
	if b.ProtocolTimeout <= 0 {
		return fmt.Errorf("protocol_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the pipeline timing invariants: every bound must be a
// positive duration and the overall generation timeout must not be shorter
// than a single poll tick.
func (g *GenerationConfig) Validate() error {
	if g.ScriptURL == "" {
		return fmt.Errorf("script_url is a required configuration field")
	}
	if g.Model == "" {
		return fmt.Errorf("model is a required configuration field")
	}
	if g.LibraryLoadTimeout <= 0 {
		return fmt.Errorf("library_load_timeout must be a positive duration")
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if g.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if g.VerbosePollInterval <= 0 {
		return fmt.Errorf("verbose_poll_interval must be a positive duration")
	}
	if g.Timeout < g.PollInterval {
		return fmt.Errorf("timeout (%s) must not be shorter than poll_interval (%s)", g.Timeout, g.PollInterval)
	}
	if g.Timeout < g.VerbosePollInterval {
		return fmt.Errorf("timeout (%s) must not be shorter than verbose_poll_interval (%s)", g.Timeout, g.VerbosePollInterval)
	}
	return nil
}
