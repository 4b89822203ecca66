package session

import (
	"strings"
	"time"

	"github.com/brianly1003/glance/internal/pathutil"
)

// Record is the in-memory form of one session descriptor. Records are
// rebuilt from disk on every reload and never patched in place.
type Record struct {
	ID               string    `json:"id"`
	WorkingDirectory string    `json:"cwd"`
	Status           Status    `json:"status"`
	Timestamp        time.Time `json:"ts"`
	PID              int       `json:"pid"`
	TerminalID       string    `json:"tty,omitempty"`
	ContextPercent   *int      `json:"context_percent,omitempty"`
}

// DisplayName is the last path component of the working directory.
func (r Record) DisplayName() string {
	return pathutil.LastComponent(r.WorkingDirectory)
}

// ContextDisplay returns the context usage clamped to [0, 100].
func (r Record) ContextDisplay() (int, bool) {
	if r.ContextPercent == nil {
		return 0, false
	}
	return min(max(*r.ContextPercent, 0), 100), true
}

// Expired reports whether the record's timestamp is older than expiry.
func (r Record) Expired(now time.Time, expiry time.Duration) bool {
	return now.Sub(r.Timestamp) > expiry
}

// HasTerminal reports whether the record carries a usable terminal id.
func (r Record) HasTerminal() bool {
	return ValidTerminalID(r.TerminalID)
}

// ValidTerminalID reports whether tty names a terminal device that can be
// looked up under /dev. Accepted forms are plain alphanumeric names
// ("ttys003", "tty1") and Linux pseudo-terminals ("pts/4"). "??" is what ps
// prints for processes without a controlling terminal.
func ValidTerminalID(tty string) bool {
	if tty == "" || tty == "??" {
		return false
	}
	if rest, ok := strings.CutPrefix(tty, "pts/"); ok {
		return rest != "" && isDigits(rest)
	}
	for i := 0; i < len(tty); i++ {
		c := tty[i]
		if !isASCIIDigit(c) && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// TerminalDevicePath returns the device node path for a terminal id.
func TerminalDevicePath(tty string) string {
	return "/dev/" + tty
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isASCIIDigit(s[i]) {
			return false
		}
	}
	return true
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
