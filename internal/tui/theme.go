package tui

import (
	"github.com/brianly1003/glance/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// Status colors.
var (
	ColorIdle         = lipgloss.Color("#34C759")
	ColorBusy         = lipgloss.Color("#FF9F0A")
	ColorWaiting      = lipgloss.Color("#FF453A")
	ColorInterrupted  = lipgloss.Color("#AF52DE")
	ColorDisconnected = lipgloss.Color("#8E8E93")
)

// ColorContextWarning marks sessions whose context window is nearly full.
var ColorContextWarning = lipgloss.Color("#FCD025")

// ContextWarningPercent is the context usage from which the warning color
// is used.
const ContextWarningPercent = 80

// UI chrome colors.
var (
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
	ColorBorder = lipgloss.Color("#4b5563")
)

var (
	pillStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)
	nameStyle     = lipgloss.NewStyle().Foreground(ColorBright)
	dimStyle      = lipgloss.NewStyle().Foreground(ColorDimmed)
	warnStyle     = lipgloss.NewStyle().Foreground(ColorContextWarning)
	noticeStyle   = lipgloss.NewStyle().Foreground(ColorDimmed).Italic(true)
)

// StatusColor returns the color of a status dot.
func StatusColor(s session.Status) lipgloss.Color {
	switch s {
	case session.StatusIdle:
		return ColorIdle
	case session.StatusBusy:
		return ColorBusy
	case session.StatusWaiting:
		return ColorWaiting
	case session.StatusInterrupted:
		return ColorInterrupted
	default:
		return ColorDisconnected
	}
}

func dot(s session.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render("●")
}
