// Package config handles configuration management for glance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianly1003/glance/internal/pathutil"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (GLANCE_SESSIONS_DIR).
const EnvPrefix = "GLANCE"

// Config holds all configuration for the application.
type Config struct {
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Watcher   WatcherConfig   `mapstructure:"watcher"`
	Health    HealthConfig    `mapstructure:"health"`
	ExitWatch ExitWatchConfig `mapstructure:"exitwatch"`
	Wake      WakeConfig      `mapstructure:"wake"`
	Focus     FocusConfig     `mapstructure:"focus"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// file is the config file that was read, if any.
	file string
	v    *viper.Viper
}

// SessionsConfig describes the descriptor directory.
type SessionsConfig struct {
	Dir           string        `mapstructure:"dir"`
	DescriptorExt string        `mapstructure:"descriptor_ext"`
	ContextExt    string        `mapstructure:"context_ext"`
	Expiry        time.Duration `mapstructure:"expiry"`
	Statuses      []string      `mapstructure:"statuses"`
	LockFile      string        `mapstructure:"lock_file"`
}

// WatcherConfig holds directory watcher configuration.
type WatcherConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	DebounceMS     int      `mapstructure:"debounce_ms"`
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// Debounce returns the debounce window as a duration.
func (w WatcherConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// HealthConfig holds the periodic sweeper configuration.
type HealthConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// ExitWatchConfig holds process exit monitoring configuration.
type ExitWatchConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Mode         string        `mapstructure:"mode"` // auto or poll
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// WakeConfig holds sleep/wake detection configuration.
type WakeConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CheckInterval      time.Duration `mapstructure:"check_interval"`
	ClockJumpThreshold time.Duration `mapstructure:"clock_jump_threshold"`
	Signals            bool          `mapstructure:"signals"`
}

// FocusConfig holds terminal focus configuration.
type FocusConfig struct {
	Terminal    string        `mapstructure:"terminal"` // auto, iterm2, tmux, none
	MinInterval time.Duration `mapstructure:"min_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // auto, console, json
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.file = v.ConfigFileUsed()
	cfg.v = v

	postProcess(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.claude-glance")
		v.AddConfigPath("/etc/claude-glance")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// postProcess expands "~" in every path setting and normalizes enum values.
func postProcess(cfg *Config) {
	cfg.Sessions.Dir = pathutil.ExpandHome(cfg.Sessions.Dir)
	cfg.Sessions.LockFile = pathutil.ExpandHome(cfg.Sessions.LockFile)
	cfg.Logging.File = pathutil.ExpandHome(cfg.Logging.File)

	cfg.Sessions.DescriptorExt = strings.TrimPrefix(strings.TrimSpace(cfg.Sessions.DescriptorExt), ".")
	cfg.Sessions.ContextExt = strings.TrimPrefix(strings.TrimSpace(cfg.Sessions.ContextExt), ".")

	for i, s := range cfg.Sessions.Statuses {
		cfg.Sessions.Statuses[i] = strings.ToLower(strings.TrimSpace(s))
	}

	cfg.ExitWatch.Mode = strings.ToLower(strings.TrimSpace(cfg.ExitWatch.Mode))
	cfg.Focus.Terminal = strings.ToLower(strings.TrimSpace(cfg.Focus.Terminal))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
}

// File returns the config file that was read, or "" when only defaults and
// environment were used.
func (c *Config) File() string {
	return c.file
}

// Settings returns every effective setting as a nested map, as read from
// defaults, file and environment.
func (c *Config) Settings() map[string]interface{} {
	if c.v == nil {
		return DefaultSettings()
	}
	return c.v.AllSettings()
}

// Get returns a single effective setting by dotted key.
func (c *Config) Get(key string) (interface{}, bool) {
	if c.v == nil || !c.v.IsSet(key) {
		return nil, false
	}
	return c.v.Get(key), true
}

// DefaultSettings returns the built-in defaults as a nested map.
func DefaultSettings() map[string]interface{} {
	v := viper.New()
	setDefaults(v)
	return v.AllSettings()
}

// GetConfigDir returns the user config directory for glance.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".claude-glance"), nil
}

// DefaultConfigPath returns the path `glance config init` writes to.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
