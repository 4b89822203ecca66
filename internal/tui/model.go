// Package tui renders the live session set as a terminal dashboard: a pill
// with per-status counts above a selectable session list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const nameWidth = 28

// Source is the registry as seen by the TUI.
type Source interface {
	Sessions() []session.Record
	Counts() []session.StatusCount
	Focus(ctx context.Context, id string) error
	RequestReload(reason string)
}

type sessionsChangedMsg struct{}

type updatesClosedMsg struct{}

type focusResultMsg struct {
	name string
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	src     Source
	updates <-chan events.Event

	keys KeyMap
	help help.Model

	sessions []session.Record
	counts   []session.StatusCount
	selected int
	width    int
	notice   string
}

// New creates the root model. updates delivers registry events; each one
// triggers a refresh from src.
func New(ctx context.Context, src Source, updates <-chan events.Event) Model {
	return Model{
		ctx:     ctx,
		src:     src,
		updates: updates,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Init loads the current snapshot and starts listening for updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return sessionsChangedMsg{} },
		waitForUpdate(m.updates),
	)
}

func waitForUpdate(updates <-chan events.Event) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return updatesClosedMsg{}
		}
		return sessionsChangedMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionsChangedMsg:
		m.refresh()
		return m, waitForUpdate(m.updates)

	case updatesClosedMsg:
		m.notice = "registry stopped"
		return m, nil

	case focusResultMsg:
		m.notice = focusNotice(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) refresh() {
	var selectedID string
	if m.selected < len(m.sessions) {
		selectedID = m.sessions[m.selected].ID
	}

	m.sessions = m.src.Sessions()
	m.counts = m.src.Counts()

	// Keep the cursor on the same session when it survives the refresh.
	m.selected = 0
	for i, rec := range m.sessions {
		if rec.ID == selectedID {
			m.selected = i
			break
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.sessions)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Focus):
		if m.selected >= len(m.sessions) {
			return m, nil
		}
		rec := m.sessions[m.selected]
		ctx, src := m.ctx, m.src
		return m, func() tea.Msg {
			return focusResultMsg{name: rec.DisplayName(), err: src.Focus(ctx, rec.ID)}
		}

	case key.Matches(msg, m.keys.Reload):
		m.src.RequestReload(events.ReasonReload)
		m.notice = "reloading…"

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func focusNotice(msg focusResultMsg) string {
	switch {
	case msg.err == nil:
		return "focused " + msg.name
	case errors.Is(msg.err, domain.ErrInvalidTerminal):
		return msg.name + " has no terminal"
	case errors.Is(msg.err, domain.ErrFocusRateLimited):
		return ""
	default:
		return fmt.Sprintf("focus failed: %v", msg.err)
	}
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(pillStyle.Render(renderPill(m.counts)))
	b.WriteString("\n")

	for i, rec := range m.sessions {
		b.WriteString(renderRow(rec, i == m.selected))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderPill renders "● 2 Busy  ● 1 Waiting", or "No sessions".
func renderPill(counts []session.StatusCount) string {
	if len(counts) == 0 {
		return dot(session.StatusDisconnected) + " " + dimStyle.Render("No sessions")
	}

	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s %d %s", dot(c.Status), c.Count, c.Status.Label()))
	}
	return strings.Join(parts, "  ")
}

func renderRow(rec session.Record, selected bool) string {
	cursor := "  "
	name := truncateMiddle(rec.DisplayName(), nameWidth)
	if selected {
		cursor = selectedStyle.Render("› ")
		name = selectedStyle.Render(name)
	} else {
		name = nameStyle.Render(name)
	}

	pad := strings.Repeat(" ", max(0, nameWidth-lipgloss.Width(name)))
	row := cursor + dot(rec.Status) + " " + name + pad + "  " + dimStyle.Render(fmt.Sprintf("%-12s", rec.Status.Label()))

	if pct, ok := rec.ContextDisplay(); ok {
		text := fmt.Sprintf("%3d%%", pct)
		if pct >= ContextWarningPercent {
			text = warnStyle.Render(text)
		} else {
			text = dimStyle.Render(text)
		}
		row += " " + text
	}
	return row
}

// truncateMiddle shortens s to width runes, keeping both ends.
func truncateMiddle(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width < 3 {
		return s
	}
	head := (width - 1) / 2
	tail := width - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}
