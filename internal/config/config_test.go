package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".claude-glance", "sessions"); cfg.Sessions.Dir != want {
		t.Errorf("Sessions.Dir = %q, want %q", cfg.Sessions.Dir, want)
	}
	if cfg.Sessions.DescriptorExt != "json" || cfg.Sessions.ContextExt != "ctx" {
		t.Errorf("extensions = (%q, %q), want (json, ctx)", cfg.Sessions.DescriptorExt, cfg.Sessions.ContextExt)
	}
	if cfg.Sessions.Expiry != 30*time.Minute {
		t.Errorf("Sessions.Expiry = %v, want 30m", cfg.Sessions.Expiry)
	}
	if !reflect.DeepEqual(cfg.Sessions.Statuses, DefaultStatuses) {
		t.Errorf("Sessions.Statuses = %v, want %v", cfg.Sessions.Statuses, DefaultStatuses)
	}
	if !cfg.Watcher.Enabled || cfg.Watcher.Debounce() != 200*time.Millisecond {
		t.Errorf("Watcher = %+v, want enabled with 200ms debounce", cfg.Watcher)
	}
	if cfg.Health.Interval != 500*time.Millisecond || cfg.Health.InitialDelay != time.Second {
		t.Errorf("Health = %+v", cfg.Health)
	}
	if cfg.ExitWatch.Mode != "auto" || cfg.ExitWatch.PollInterval != time.Second {
		t.Errorf("ExitWatch = %+v", cfg.ExitWatch)
	}
	if cfg.Wake.CheckInterval != 2*time.Second || cfg.Wake.ClockJumpThreshold != 5*time.Second {
		t.Errorf("Wake = %+v", cfg.Wake)
	}
	if cfg.Focus.Terminal != "auto" || cfg.Focus.MinInterval != 500*time.Millisecond {
		t.Errorf("Focus = %+v", cfg.Focus)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "auto" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
sessions:
  dir: "`+dir+`"
  descriptor_ext: ".state"
  expiry: 10m
  statuses: [waiting, busy, idle]

watcher:
  enabled: false
  debounce_ms: 50

focus:
  terminal: TMUX

logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.File() != path {
		t.Errorf("File() = %q, want %q", cfg.File(), path)
	}
	if cfg.Sessions.Dir != dir {
		t.Errorf("Sessions.Dir = %q, want %q", cfg.Sessions.Dir, dir)
	}
	if cfg.Sessions.DescriptorExt != "state" {
		t.Errorf("DescriptorExt = %q, want state", cfg.Sessions.DescriptorExt)
	}
	if cfg.Sessions.Expiry != 10*time.Minute {
		t.Errorf("Expiry = %v, want 10m", cfg.Sessions.Expiry)
	}
	if want := []string{"waiting", "busy", "idle"}; !reflect.DeepEqual(cfg.Sessions.Statuses, want) {
		t.Errorf("Statuses = %v, want %v", cfg.Sessions.Statuses, want)
	}
	if cfg.Watcher.Enabled || cfg.Watcher.DebounceMS != 50 {
		t.Errorf("Watcher = %+v", cfg.Watcher)
	}
	if cfg.Focus.Terminal != "tmux" {
		t.Errorf("Focus.Terminal = %q, want tmux", cfg.Focus.Terminal)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GLANCE_SESSIONS_DIR", dir)
	t.Setenv("GLANCE_SESSIONS_STATUSES", "busy,idle")
	t.Setenv("GLANCE_HEALTH_INTERVAL", "2s")
	t.Setenv("GLANCE_WATCHER_DEBOUNCE_MS", "75")

	cfg, err := Load(writeConfig(t, "sessions:\n  dir: /ignored\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sessions.Dir != dir {
		t.Errorf("Sessions.Dir = %q, want %q", cfg.Sessions.Dir, dir)
	}
	if want := []string{"busy", "idle"}; !reflect.DeepEqual(cfg.Sessions.Statuses, want) {
		t.Errorf("Statuses = %v, want %v", cfg.Sessions.Statuses, want)
	}
	if cfg.Health.Interval != 2*time.Second {
		t.Errorf("Health.Interval = %v, want 2s", cfg.Health.Interval)
	}
	if cfg.Watcher.DebounceMS != 75 {
		t.Errorf("DebounceMS = %d, want 75", cfg.Watcher.DebounceMS)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "sessions: [unclosed")); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, "sessions:\n  statuses: [busy, sleeping]\n"))

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Load() error = %v, want ValidationError", err)
	}
	if ve.Field != "sessions.statuses" {
		t.Errorf("Field = %q, want sessions.statuses", ve.Field)
	}
}

func TestConfig_Get(t *testing.T) {
	cfg, err := Load(writeConfig(t, "focus:\n  terminal: none\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if v, ok := cfg.Get("focus.terminal"); !ok || v != "none" {
		t.Errorf("Get(focus.terminal) = (%v, %v), want (none, true)", v, ok)
	}
	if _, ok := cfg.Get("nope.missing"); ok {
		t.Error("Get(unknown) should report false")
	}
}

func TestRender(t *testing.T) {
	settings := DefaultSettings()

	t.Run("yaml", func(t *testing.T) {
		out, err := Render(settings, "yaml")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		var back map[string]interface{}
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatalf("output is not yaml: %v", err)
		}
		if _, ok := back["sessions"]; !ok {
			t.Error("yaml output missing sessions")
		}
	})

	t.Run("toml", func(t *testing.T) {
		out, err := Render(settings, "toml")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		var back map[string]interface{}
		if err := toml.Unmarshal(out, &back); err != nil {
			t.Fatalf("output is not toml: %v", err)
		}
		if !strings.Contains(string(out), "[sessions]") {
			t.Errorf("toml output missing [sessions] table:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := Render(settings, "json")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !json.Valid(out) {
			t.Errorf("output is not json:\n%s", out)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Render(settings, "xml"); err == nil {
			t.Error("Render(xml) error = nil, want error")
		}
	})
}

func TestDefaultSettings_LoadRoundTrip(t *testing.T) {
	out, err := Render(DefaultSettings(), "yaml")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if _, err := Load(writeConfig(t, string(out))); err != nil {
		t.Errorf("Load(rendered defaults) error = %v", err)
	}
}
