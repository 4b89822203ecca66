package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/brianly1003/glance/internal/adapters/store"
	"github.com/brianly1003/glance/internal/adapters/wake"
	"github.com/brianly1003/glance/internal/app"
	"github.com/brianly1003/glance/internal/config"
	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/session"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

var (
	doctorJSON   bool
	doctorStrict bool
)

type doctorStatus string

const (
	doctorStatusOK   doctorStatus = "ok"
	doctorStatusWarn doctorStatus = "warn"
	doctorStatusFail doctorStatus = "fail"
)

type doctorCheck struct {
	ID          string                 `json:"id"`
	Status      doctorStatus           `json:"status"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Remediation string                 `json:"remediation,omitempty"`
}

type doctorSummary struct {
	Total int `json:"total"`
	OK    int `json:"ok"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
}

type doctorReport struct {
	Version      string        `json:"version"`
	GeneratedAt  string        `json:"generated_at"`
	Overall      doctorStatus  `json:"overall_status"`
	Summary      doctorSummary `json:"summary"`
	Checks       []doctorCheck `json:"checks"`
	SearchConfig []string      `json:"config_search_paths,omitempty"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run local diagnostics with remediation hints",
	Long: `Run read-only diagnostics against the local glance setup and print
actionable hints. Nothing in the session directory is modified.

By default the output is human-readable text.
Use --json for machine-readable output.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output machine-readable JSON")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "return non-zero on warnings")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := collectDoctorReport(cmd.Context())

	if doctorJSON {
		if err := printDoctorJSON(report); err != nil {
			return err
		}
	} else {
		printDoctorText(report)
	}

	if report.Summary.Fail > 0 {
		return fmt.Errorf("doctor found %d failing check(s)", report.Summary.Fail)
	}
	if doctorStrict && report.Summary.Warn > 0 {
		return fmt.Errorf("doctor strict mode failed with %d warning(s)", report.Summary.Warn)
	}
	return nil
}

func collectDoctorReport(ctx context.Context) doctorReport {
	checks := make([]doctorCheck, 0, 10)

	cfg, cfgCheck := checkConfigLoad(cfgFile)
	checks = append(checks, cfgCheck)
	checks = append(checks, checkConfigDirectory())

	if cfg != nil {
		checks = append(checks, checkSessionsDir(cfg.Sessions.Dir))
		checks = append(checks, checkDescriptors(cfg.Sessions))
		checks = append(checks, checkExitWatch(cfg.ExitWatch))
		checks = append(checks, checkWake(cfg.Wake, wake.NewLogin1()))
		checks = append(checks, checkFocus(ctx, cfg.Focus))
		checks = append(checks, checkInstanceLock(cfg.Sessions.LockFile))
	}

	summary := summarizeDoctorChecks(checks)
	return doctorReport{
		Version:      version,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Overall:      overallStatus(summary),
		Summary:      summary,
		Checks:       checks,
		SearchConfig: configSearchPaths(cfgFile),
	}
}

func checkConfigLoad(path string) (*config.Config, doctorCheck) {
	cfg, err := config.Load(path)
	searchPaths := configSearchPaths(path)
	if err != nil {
		return nil, doctorCheck{
			ID:      "config.load",
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to load config: %v", err),
			Details: map[string]interface{}{
				"config_path":  strings.TrimSpace(path),
				"search_paths": searchPaths,
			},
			Remediation: "Fix the config file, or run `glance config init --force` to regenerate defaults.",
		}
	}

	msg := "Configuration loaded using built-in defaults and environment overrides"
	if cfg.File() != "" {
		msg = "Configuration loaded successfully"
	}

	return cfg, doctorCheck{
		ID:      "config.load",
		Status:  doctorStatusOK,
		Message: msg,
		Details: map[string]interface{}{
			"loaded_from":  cfg.File(),
			"search_paths": searchPaths,
		},
	}
}

func checkConfigDirectory() doctorCheck {
	dir, err := config.GetConfigDir()
	if err != nil {
		return doctorCheck{
			ID:          "config.directory",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to resolve config directory: %v", err),
			Remediation: "Verify your HOME environment and filesystem permissions.",
		}
	}

	return checkDirectoryExists(
		"config.directory",
		dir,
		"Config directory is available",
		"Run `glance config init` to create initial local configuration.",
	)
}

func checkSessionsDir(dir string) doctorCheck {
	return checkDirectoryExists(
		"sessions.dir",
		dir,
		"Session directory exists",
		"The directory is created by `glance run` or `glance watch`; no session has reported yet.",
	)
}

// checkDescriptors decodes every descriptor without deleting anything and
// reports the ones a reload would skip.
func checkDescriptors(cfg config.SessionsConfig) doctorCheck {
	const id = "sessions.descriptors"

	statuses, err := session.NewStatusSet(cfg.Statuses)
	if err != nil {
		return doctorCheck{
			ID:          id,
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Invalid status set: %v", err),
			Remediation: "Fix `sessions.statuses` in config.",
		}
	}

	dir := store.NewDir(cfg.Dir, cfg.DescriptorExt, cfg.ContextExt)
	ids, err := dir.List()
	if err != nil {
		return doctorCheck{
			ID:      id,
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to list descriptors: %v", err),
			Details: map[string]interface{}{
				"path": dir.Path(),
			},
			Remediation: "Check permissions on the session directory.",
		}
	}

	var malformed, unknown []string
	for _, sid := range ids {
		data, err := dir.ReadDescriptor(sid)
		if err != nil {
			continue
		}
		_, err = session.Decode(sid, data, nil, statuses)
		switch {
		case errors.Is(err, domain.ErrUnknownStatus):
			unknown = append(unknown, sid)
		case err != nil:
			malformed = append(malformed, sid)
		}
	}

	details := map[string]interface{}{
		"path":        dir.Path(),
		"descriptors": len(ids),
	}
	if len(malformed) == 0 && len(unknown) == 0 {
		return doctorCheck{
			ID:      id,
			Status:  doctorStatusOK,
			Message: fmt.Sprintf("%d descriptor(s) parse cleanly", len(ids)),
			Details: details,
		}
	}

	details["malformed"] = malformed
	details["unknown_status"] = unknown
	return doctorCheck{
		ID:          id,
		Status:      doctorStatusWarn,
		Message:     fmt.Sprintf("%d malformed and %d unknown-status descriptor(s) are being skipped", len(malformed), len(unknown)),
		Details:     details,
		Remediation: "Update the status hook that writes these files, or remove them by hand.",
	}
}

func checkExitWatch(cfg config.ExitWatchConfig) doctorCheck {
	if !cfg.Enabled {
		return doctorCheck{
			ID:          "exitwatch.backend",
			Status:      doctorStatusWarn,
			Message:     "Exit watching is disabled; dead sessions are only found by the periodic sweep",
			Remediation: "Set `exitwatch.enabled: true` for immediate removal.",
		}
	}

	backend := app.NewExitWatcher(cfg).Backend()
	return doctorCheck{
		ID:      "exitwatch.backend",
		Status:  doctorStatusOK,
		Message: fmt.Sprintf("Process exits are observed via %s", backend),
		Details: map[string]interface{}{
			"backend": backend,
			"mode":    cfg.Mode,
		},
	}
}

type wakeProber interface {
	Probe() error
}

func checkWake(cfg config.WakeConfig, login1 wakeProber) doctorCheck {
	if !cfg.Enabled {
		return doctorCheck{
			ID:      "wake.backend",
			Status:  doctorStatusWarn,
			Message: "Wake detection is disabled; sessions that died during sleep linger until the next sweep",
		}
	}

	sources := []string{"clock"}
	if cfg.Signals && runtime.GOOS != "windows" {
		sources = append(sources, "sigusr1")
	}

	if runtime.GOOS != "linux" {
		return doctorCheck{
			ID:      "wake.backend",
			Status:  doctorStatusOK,
			Message: "Wake is detected from wall clock jumps",
			Details: map[string]interface{}{"sources": sources},
		}
	}

	if err := login1.Probe(); err != nil {
		return doctorCheck{
			ID:          "wake.backend",
			Status:      doctorStatusWarn,
			Message:     fmt.Sprintf("systemd-logind is unreachable, falling back to clock jumps: %v", err),
			Details:     map[string]interface{}{"sources": sources},
			Remediation: "Run glance inside a user session with access to the system D-Bus.",
		}
	}

	sources = append(sources, "login1")
	return doctorCheck{
		ID:      "wake.backend",
		Status:  doctorStatusOK,
		Message: "Resume is reported by systemd-logind",
		Details: map[string]interface{}{"sources": sources},
	}
}

func checkFocus(ctx context.Context, cfg config.FocusConfig) doctorCheck {
	backend := app.NewFocuser(ctx, cfg).Backend()
	details := map[string]interface{}{
		"configured": cfg.Terminal,
		"backend":    backend,
	}

	if backend == "none" && cfg.Terminal != "none" {
		return doctorCheck{
			ID:          "focus.backend",
			Status:      doctorStatusWarn,
			Message:     "No terminal focus backend is available",
			Details:     details,
			Remediation: "Start iTerm2 or a tmux server, or set `focus.terminal: none` to silence this check.",
		}
	}

	return doctorCheck{
		ID:      "focus.backend",
		Status:  doctorStatusOK,
		Message: fmt.Sprintf("Terminals are focused via %s", backend),
		Details: details,
	}
}

func checkInstanceLock(path string) doctorCheck {
	if path == "" {
		return doctorCheck{
			ID:      "instance.lock",
			Status:  doctorStatusWarn,
			Message: "No lock file configured; two registries could race on deletions",
		}
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		if os.IsNotExist(err) {
			return doctorCheck{
				ID:      "instance.lock",
				Status:  doctorStatusOK,
				Message: "No glance instance is running",
				Details: map[string]interface{}{"path": path},
			}
		}
		return doctorCheck{
			ID:          "instance.lock",
			Status:      doctorStatusFail,
			Message:     fmt.Sprintf("Failed to inspect lock file: %v", err),
			Details:     map[string]interface{}{"path": path},
			Remediation: "Check permissions on the lock file directory.",
		}
	}

	if !locked {
		return doctorCheck{
			ID:      "instance.lock",
			Status:  doctorStatusOK,
			Message: "A glance instance is running",
			Details: map[string]interface{}{"path": path},
		}
	}
	_ = lock.Unlock()

	return doctorCheck{
		ID:      "instance.lock",
		Status:  doctorStatusOK,
		Message: "No glance instance is running",
		Details: map[string]interface{}{"path": path},
	}
}

func checkDirectoryExists(id, path, okMessage, missingRemediation string) doctorCheck {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doctorCheck{
				ID:      id,
				Status:  doctorStatusWarn,
				Message: "Directory not found",
				Details: map[string]interface{}{
					"path": path,
				},
				Remediation: missingRemediation,
			}
		}
		return doctorCheck{
			ID:      id,
			Status:  doctorStatusFail,
			Message: fmt.Sprintf("Failed to read directory: %v", err),
			Details: map[string]interface{}{
				"path": path,
			},
			Remediation: "Check filesystem permissions.",
		}
	}

	if !info.IsDir() {
		return doctorCheck{
			ID:      id,
			Status:  doctorStatusFail,
			Message: "Path exists but is not a directory",
			Details: map[string]interface{}{
				"path": path,
			},
			Remediation: "Remove the file and create the directory path.",
		}
	}

	return doctorCheck{
		ID:      id,
		Status:  doctorStatusOK,
		Message: okMessage,
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func summarizeDoctorChecks(checks []doctorCheck) doctorSummary {
	summary := doctorSummary{Total: len(checks)}
	for _, check := range checks {
		switch check.Status {
		case doctorStatusOK:
			summary.OK++
		case doctorStatusWarn:
			summary.Warn++
		case doctorStatusFail:
			summary.Fail++
		}
	}
	return summary
}

func overallStatus(summary doctorSummary) doctorStatus {
	if summary.Fail > 0 {
		return doctorStatusFail
	}
	if summary.Warn > 0 {
		return doctorStatusWarn
	}
	return doctorStatusOK
}

func printDoctorJSON(report doctorReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printDoctorText(report doctorReport) {
	fmt.Printf("glance doctor %s\n", report.Version)
	fmt.Printf("generated_at: %s\n", report.GeneratedAt)
	fmt.Printf("overall: %s  (ok=%d warn=%d fail=%d total=%d)\n\n",
		strings.ToUpper(string(report.Overall)),
		report.Summary.OK,
		report.Summary.Warn,
		report.Summary.Fail,
		report.Summary.Total,
	)

	for _, check := range report.Checks {
		label := "[OK]"
		if check.Status == doctorStatusWarn {
			label = "[WARN]"
		}
		if check.Status == doctorStatusFail {
			label = "[FAIL]"
		}

		fmt.Printf("%s %s: %s\n", label, check.ID, check.Message)
		if check.Remediation != "" && check.Status != doctorStatusOK {
			fmt.Printf("  fix: %s\n", check.Remediation)
		}
	}

	fmt.Println()
	fmt.Println("Tip: run `glance doctor --json` for machine-readable output.")
}

func configSearchPaths(explicit string) []string {
	if strings.TrimSpace(explicit) != "" {
		return []string{explicit}
	}

	home := userHomeDir()
	return []string{
		filepath.Join(".", "config.yaml"),
		filepath.Join(home, ".claude-glance", "config.yaml"),
		"/etc/claude-glance/config.yaml",
	}
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
