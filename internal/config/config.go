// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Host-level fields
// (logger, control plane, sink) are validated strictly; typing behavior
// fields are clamped into range rather than rejected.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Control ControlConfig `mapstructure:"control" yaml:"control"`
	Sink    SinkConfig    `mapstructure:"sink" yaml:"sink"`
	Typing  TypingConfig  `mapstructure:"typing" yaml:"typing"`
	Keylog  KeylogConfig  `mapstructure:"keylog" yaml:"keylog"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ControlConfig configures the local HTTP control plane.
type ControlConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// RatePerSecond bounds mutating requests (config updates, start/stop).
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	// ShutdownGrace is how long in-flight requests get on shutdown.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace"`
}

// SinkConfig selects and configures the keystroke sink backend.
type SinkConfig struct {
	// Kind is "cdp" for a DevTools-driven browser tab, or "capture" for the
	// in-memory sink (dry runs and tests).
	Kind string `mapstructure:"kind" yaml:"kind"`
	// TargetURL is the page the CDP sink navigates to before typing.
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
	// FocusSelector, when set, is clicked once so keystrokes land in a field.
	FocusSelector string        `mapstructure:"focus_selector" yaml:"focus_selector"`
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// KeylogConfig controls the optional keystroke history buffer.
type KeylogConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	Capacity int  `mapstructure:"capacity" yaml:"capacity"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ghosttype")
	v.SetDefault("logger.log_file", "ghosttype.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Control plane --
	v.SetDefault("control.listen_addr", "127.0.0.1:8839")
	v.SetDefault("control.rate_per_second", 10.0)
	v.SetDefault("control.rate_burst", 20)
	v.SetDefault("control.shutdown_grace", "5s")

	// -- Sink --
	v.SetDefault("sink.kind", "capture")
	v.SetDefault("sink.headless", true)
	v.SetDefault("sink.action_timeout", "10s")

	// -- Keystroke log --
	v.SetDefault("keylog.enabled", false)
	v.SetDefault("keylog.capacity", 1024)

	setTypingDefaults(v)
}

// NewConfigFromViper creates a configuration instance from a viper object.
// Typing knobs are normalized into range; host fields are validated.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Typing.Clamp()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are static; this cannot fail unless they are broken.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// Validate checks host-level fields for sane values. Typing fields are never
// rejected here; Clamp has already forced them into range.
func (c *Config) Validate() error {
	if c.Control.ListenAddr == "" {
		return fmt.Errorf("control.listen_addr is required")
	}
	if c.Control.RatePerSecond <= 0 {
		return fmt.Errorf("control.rate_per_second must be positive")
	}
	if c.Control.RateBurst <= 0 {
		return fmt.Errorf("control.rate_burst must be positive")
	}
	switch c.Sink.Kind {
	case "cdp", "capture":
	default:
		return fmt.Errorf("sink.kind must be \"cdp\" or \"capture\", got %q", c.Sink.Kind)
	}
	if c.Sink.Kind == "cdp" && c.Sink.TargetURL == "" {
		return fmt.Errorf("sink.target_url is required when sink.kind is \"cdp\"")
	}
	if c.Keylog.Enabled && c.Keylog.Capacity <= 0 {
		return fmt.Errorf("keylog.capacity must be positive when keylog is enabled")
	}
	return nil
}
