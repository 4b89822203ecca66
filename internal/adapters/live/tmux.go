package live

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/session"
	"github.com/rs/zerolog/log"
)

const tmuxPaneFormat = "#{pane_tty} #{session_name}:#{window_index}.#{pane_index}"

// TmuxPlatform focuses the tmux pane attached to a terminal device.
type TmuxPlatform struct {
	runner Runner
}

// NewTmuxPlatform creates a tmux backend.
func NewTmuxPlatform(runner Runner) *TmuxPlatform {
	if runner == nil {
		runner = ExecRunner
	}
	return &TmuxPlatform{runner: runner}
}

func (p *TmuxPlatform) Name() string {
	return ModeTmux
}

// Available reports whether a tmux server is reachable.
func (p *TmuxPlatform) Available(ctx context.Context) bool {
	_, err := p.runner(ctx, "tmux", "list-sessions")
	return err == nil
}

// Focus switches the client to the pane whose tty matches /dev/<tty>.
func (p *TmuxPlatform) Focus(ctx context.Context, tty string) error {
	out, err := p.runner(ctx, "tmux", "list-panes", "-a", "-F", tmuxPaneFormat)
	if err != nil {
		return fmt.Errorf("tmux list-panes: %w", err)
	}

	target, ok := findPane(out, session.TerminalDevicePath(tty))
	if !ok {
		return fmt.Errorf("no tmux pane on %s: %w", tty, domain.ErrFocusUnavailable)
	}

	sessionName, window := splitTarget(target)

	// switch-client fails when glance itself runs outside tmux; selecting
	// the window and pane still updates what attached clients show.
	if out, err := p.runner(ctx, "tmux", "switch-client", "-t", sessionName); err != nil {
		log.Debug().Err(err).Str("output", string(out)).Str("session", sessionName).Msg("tmux switch-client failed")
	}
	if out, err := p.runner(ctx, "tmux", "select-window", "-t", window); err != nil {
		return fmt.Errorf("tmux select-window: %w: %s", err, out)
	}
	if out, err := p.runner(ctx, "tmux", "select-pane", "-t", target); err != nil {
		return fmt.Errorf("tmux select-pane: %w: %s", err, out)
	}
	return nil
}

// findPane returns the pane target for devicePath from list-panes output.
func findPane(out []byte, devicePath string) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		tty, target, ok := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if ok && tty == devicePath && target != "" {
			return target, true
		}
	}
	return "", false
}

// splitTarget splits "sess:1.2" into "sess" and "sess:1".
func splitTarget(target string) (sessionName, window string) {
	window = target
	if i := strings.LastIndex(target, "."); i > strings.LastIndex(target, ":") {
		window = target[:i]
	}
	sessionName = target
	if i := strings.LastIndex(target, ":"); i >= 0 {
		sessionName = target[:i]
	}
	return sessionName, window
}
