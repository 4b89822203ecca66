package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brianly1003/glance/internal/app"
	"github.com/brianly1003/glance/internal/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listFormat string

// listCmd prints the live session set once.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the live sessions once",
	Long: `Reload the session directory once and print the live sessions.

Descriptors of dead or expired sessions are deleted, exactly as a running
registry would. Does not take the instance lock.

Examples:
  glance list
  glance list --format json
  glance list --format yaml`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "table", "output format: table, json, yaml")
}

type listSession struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Dir       string    `json:"cwd" yaml:"cwd"`
	Status    string    `json:"status" yaml:"status"`
	PID       int       `json:"pid" yaml:"pid"`
	TTY       string    `json:"tty,omitempty" yaml:"tty,omitempty"`
	Context   *int      `json:"context_percent,omitempty" yaml:"context_percent,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type listCount struct {
	Status string `json:"status" yaml:"status"`
	Count  int    `json:"count" yaml:"count"`
}

type listReport struct {
	Headline string        `json:"headline" yaml:"headline"`
	Counts   []listCount   `json:"counts" yaml:"counts"`
	Sessions []listSession `json:"sessions" yaml:"sessions"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closer := setupLogging(cfg, false)
	defer closer.Close()

	reg, err := app.Snapshot(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	report := buildListReport(reg.Sessions(), reg.Counts())
	return writeList(os.Stdout, report, listFormat)
}

func buildListReport(recs []session.Record, counts []session.StatusCount) listReport {
	report := listReport{
		Headline: string(session.Headline(counts)),
		Counts:   make([]listCount, 0, len(counts)),
		Sessions: make([]listSession, 0, len(recs)),
	}
	for _, c := range counts {
		report.Counts = append(report.Counts, listCount{Status: string(c.Status), Count: c.Count})
	}
	for _, rec := range recs {
		pct := rec.ContextPercent
		if p, ok := rec.ContextDisplay(); ok {
			pct = &p
		}
		report.Sessions = append(report.Sessions, listSession{
			ID:        rec.ID,
			Name:      rec.DisplayName(),
			Dir:       rec.WorkingDirectory,
			Status:    string(rec.Status),
			PID:       rec.PID,
			TTY:       rec.TerminalID,
			Context:   pct,
			UpdatedAt: rec.Timestamp.UTC(),
		})
	}
	return report
}

func writeList(out io.Writer, report listReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "":
		return writeListTable(out, report)
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func writeListTable(out io.Writer, report listReport) error {
	if len(report.Sessions) == 0 {
		_, err := fmt.Fprintln(out, "No sessions")
		return err
	}

	parts := make([]string, 0, len(report.Counts))
	for _, c := range report.Counts {
		parts = append(parts, fmt.Sprintf("%d %s", c.Count, session.Status(c.Status).Label()))
	}
	if _, err := fmt.Fprintln(out, strings.Join(parts, ", ")); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tCONTEXT\tPID\tTTY\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t-------\t---\t---\t--")
	for _, s := range report.Sessions {
		ctx := "-"
		if s.Context != nil {
			ctx = fmt.Sprintf("%d%%", *s.Context)
		}
		tty := s.TTY
		if tty == "" {
			tty = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", s.Name, s.Status, ctx, s.PID, tty, s.ID)
	}
	return w.Flush()
}
