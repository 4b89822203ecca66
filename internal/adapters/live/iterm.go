package live

import (
	"context"
	"fmt"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/session"
)

const itermProcessName = "iTerm2"

// ITermPlatform focuses iTerm2 sessions with AppleScript.
type ITermPlatform struct {
	runner  Runner
	running func(ctx context.Context, names ...string) bool
}

// NewITermPlatform creates an iTerm2 backend. running reports whether the
// iTerm2 process is up.
func NewITermPlatform(runner Runner, running func(ctx context.Context, names ...string) bool) *ITermPlatform {
	if runner == nil {
		runner = ExecRunner
	}
	if running == nil {
		running = ProcessRunning
	}
	return &ITermPlatform{runner: runner, running: running}
}

func (p *ITermPlatform) Name() string {
	return ModeITerm2
}

func (p *ITermPlatform) Available(ctx context.Context) bool {
	return p.running(ctx, itermProcessName)
}

// Focus selects the tab whose session is attached to /dev/<tty> and
// activates iTerm2. Nothing happens when iTerm2 is not running.
func (p *ITermPlatform) Focus(ctx context.Context, tty string) error {
	if !p.Available(ctx) {
		return fmt.Errorf("iTerm2 is not running: %w", domain.ErrFocusUnavailable)
	}

	out, err := p.runner(ctx, "osascript", "-e", itermScript(session.TerminalDevicePath(tty)))
	if err != nil {
		return fmt.Errorf("AppleScript failed: %w: %s", err, out)
	}
	return nil
}

func itermScript(devicePath string) string {
	return fmt.Sprintf(`tell application "iTerm2"
	repeat with w in windows
		repeat with t in tabs of w
			repeat with s in sessions of t
				if tty of s is %q then
					select t
				end if
			end repeat
		end repeat
	end repeat
	activate
end tell`, devicePath)
}
