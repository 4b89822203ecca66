package config

import "github.com/spf13/viper"

// DefaultStatuses is the accepted status set in priority order.
var DefaultStatuses = []string{"busy", "waiting", "idle", "interrupted", "disconnected"}

// DefaultWatcherIgnorePatterns lists editor and OS droppings that never
// describe a session.
var DefaultWatcherIgnorePatterns = []string{
	".DS_Store",
	"*.swp",
	"*.swo",
	"*~",
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sessions.dir", "~/.claude-glance/sessions")
	v.SetDefault("sessions.descriptor_ext", "json")
	v.SetDefault("sessions.context_ext", "ctx")
	v.SetDefault("sessions.expiry", "30m")
	v.SetDefault("sessions.statuses", DefaultStatuses)
	v.SetDefault("sessions.lock_file", "~/.claude-glance/glance.lock")

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.debounce_ms", 200)
	v.SetDefault("watcher.ignore_patterns", DefaultWatcherIgnorePatterns)

	v.SetDefault("health.interval", "500ms")
	v.SetDefault("health.initial_delay", "1s")

	v.SetDefault("exitwatch.enabled", true)
	v.SetDefault("exitwatch.mode", "auto")
	v.SetDefault("exitwatch.poll_interval", "1s")

	v.SetDefault("wake.enabled", true)
	v.SetDefault("wake.check_interval", "2s")
	v.SetDefault("wake.clock_jump_threshold", "5s")
	v.SetDefault("wake.signals", true)

	v.SetDefault("focus.terminal", "auto")
	v.SetDefault("focus.min_interval", "500ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
	v.SetDefault("logging.file", "~/.claude-glance/glance.log")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}
