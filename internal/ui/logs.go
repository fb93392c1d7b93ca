package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tracklist/internal/logtail"
)

const logTailLines = 400

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// refreshLogs reads the tail of the log file in the background.
func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logsMsg{entries: logtail.Parse(lines), err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.flash = "log: " + msg.err.Error()
		return
	}
	m.logEntries = msg.entries
	m.updateLogViewport()
}

func (m *Model) updateLogViewport() {
	w, h := max(m.width-4, 10), max(m.height-4, 3)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
	}
	m.logViewport.Width = w
	m.logViewport.Height = h

	styles := m.theme.Styles()
	var b strings.Builder
	for i, e := range logtail.AtLeast(m.logEntries, m.logLevel) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.LevelStyle(levelName(e.Level)).Render(e.Text))
	}
	m.logViewport.SetContent(b.String())
	m.logViewport.GotoBottom()
}

func levelName(l logtail.Level) string {
	switch l {
	case logtail.LevelDebug:
		return "DEBUG"
	case logtail.LevelInfo:
		return "INFO"
	case logtail.LevelWarn:
		return "WARN"
	case logtail.LevelError:
		return "ERROR"
	}
	return ""
}

// cycleLogLevel steps the minimum displayed level: debug, info, warn, error.
func (m *Model) cycleLogLevel() {
	m.logLevel++
	if m.logLevel > logtail.LevelError {
		m.logLevel = logtail.LevelDebug
	}
	m.updateLogViewport()
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Log") + " " +
		styles.FaintText.Render(m.logPath+"  (level ≥ "+levelName(m.logLevel)+", v to change, L to close)")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(max(m.width-2, 10)).
		Render(m.logViewport.View())
	return title + "\n" + box
}
