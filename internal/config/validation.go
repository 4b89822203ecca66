package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/session"
	"github.com/rs/zerolog"
)

// Allowed enum values.
var (
	ExitWatchModes = []string{"auto", "poll"}
	FocusTerminals = []string{"auto", "iterm2", "tmux", "none"}
	LogFormats     = []string{"auto", "console", "json"}
)

const maxDebounceMS = 10000

// Validate validates the configuration. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateSessions(&cfg.Sessions)...)
	errs = append(errs, validateWatcher(&cfg.Watcher)...)
	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateExitWatch(&cfg.ExitWatch)...)
	errs = append(errs, validateWake(&cfg.Wake)...)
	errs = append(errs, validateFocus(&cfg.Focus)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	return errors.Join(errs...)
}

func validateSessions(cfg *SessionsConfig) []error {
	var errs []error

	if cfg.Dir == "" {
		errs = append(errs, domain.NewValidationError("sessions.dir", "must not be empty"))
	}
	if cfg.DescriptorExt == "" {
		errs = append(errs, domain.NewValidationError("sessions.descriptor_ext", "must not be empty"))
	}
	if cfg.ContextExt == "" {
		errs = append(errs, domain.NewValidationError("sessions.context_ext", "must not be empty"))
	}
	if cfg.DescriptorExt != "" && cfg.DescriptorExt == cfg.ContextExt {
		errs = append(errs, domain.NewValidationError("sessions.context_ext", "must differ from sessions.descriptor_ext"))
	}
	if cfg.Expiry <= 0 {
		errs = append(errs, domain.NewValidationError("sessions.expiry", "must be positive"))
	}
	if _, err := session.NewStatusSet(cfg.Statuses); err != nil {
		errs = append(errs, domain.NewValidationError("sessions.statuses", err.Error()))
	}

	return errs
}

func validateWatcher(cfg *WatcherConfig) []error {
	if cfg.DebounceMS < 0 || cfg.DebounceMS > maxDebounceMS {
		return []error{domain.NewValidationError("watcher.debounce_ms",
			fmt.Sprintf("must be between 0 and %d, got %d", maxDebounceMS, cfg.DebounceMS))}
	}
	return nil
}

func validateHealth(cfg *HealthConfig) []error {
	var errs []error
	if err := positive("health.interval", cfg.Interval); err != nil {
		errs = append(errs, err)
	}
	if cfg.InitialDelay < 0 {
		errs = append(errs, domain.NewValidationError("health.initial_delay", "must not be negative"))
	}
	return errs
}

func validateExitWatch(cfg *ExitWatchConfig) []error {
	var errs []error
	if err := oneOf("exitwatch.mode", cfg.Mode, ExitWatchModes); err != nil {
		errs = append(errs, err)
	}
	if err := positive("exitwatch.poll_interval", cfg.PollInterval); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateWake(cfg *WakeConfig) []error {
	var errs []error
	if err := positive("wake.check_interval", cfg.CheckInterval); err != nil {
		errs = append(errs, err)
	}
	if err := positive("wake.clock_jump_threshold", cfg.ClockJumpThreshold); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateFocus(cfg *FocusConfig) []error {
	var errs []error
	if err := oneOf("focus.terminal", cfg.Terminal, FocusTerminals); err != nil {
		errs = append(errs, err)
	}
	if cfg.MinInterval < 0 {
		errs = append(errs, domain.NewValidationError("focus.min_interval", "must not be negative"))
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []error {
	var errs []error
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil || cfg.Level == "" {
		errs = append(errs, domain.NewValidationError("logging.level", fmt.Sprintf("unknown level %q", cfg.Level)))
	}
	if err := oneOf("logging.format", cfg.Format, LogFormats); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		errs = append(errs, domain.NewValidationError("logging", "rotation limits must not be negative"))
	}
	return errs
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return domain.NewValidationError(field, fmt.Sprintf("must be positive, got %v", d))
	}
	return nil
}

func oneOf(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return domain.NewValidationError(field, fmt.Sprintf("must be one of %v, got %q", allowed, value))
	}
	return nil
}
