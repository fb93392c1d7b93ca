package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/tracklist/internal/state"
	"github.com/five82/tracklist/internal/view"
)

var clipboardWriteAll = clipboard.WriteAll

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderGroupBar())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	indicator := "▶"
	if m.paused {
		indicator = "⏸"
	}
	right := fmt.Sprintf("%s %d", sortArrow(m.sortMode), len(m.rows))
	logo := styles.Logo.Render("tracklist")

	title := m.title
	if title == "" {
		title = "mpv"
	}
	avail := m.width - lipgloss.Width(logo) - runewidth.StringWidth(right) - 8
	title = truncate(title, avail)

	left := logo + " " + styles.AccentText.Render(indicator) + " " + styles.Text.Render(title)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + styles.MutedText.Render(right))
}

func (m Model) renderGroupBar() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, len(m.groups))
	for _, g := range m.groups {
		label := fmt.Sprintf("%s (%d)", g.Name, g.Count)
		if g.Active {
			tabs = append(tabs, styles.GroupOn.Render(label))
		} else {
			tabs = append(tabs, styles.GroupTab.Render(label))
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(tabs, ""))
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	h := m.listHeight()
	lines := make([]string, 0, h)

	if len(m.rows) == 0 {
		msg := "No tracks"
		if m.search.Value() != "" {
			msg = "No tracks match " + m.search.Value()
		} else if m.group != state.AllGroup {
			msg = "No tracks in " + m.group
		}
		lines = append(lines, styles.FaintText.Render("  "+msg))
	}

	end := min(m.offset+h, len(m.rows))
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.selected, styles))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r view.Row, selected bool, styles Styles) string {
	marker := "  "
	if r.Playing {
		marker = "▶ "
	}
	star := "  "
	if r.Favorite {
		star = "★ "
	}
	name := truncate(r.Track.Name, m.width-6)
	line := marker + star + name
	if pad := m.width - runewidth.StringWidth(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}

	switch {
	case selected:
		return styles.Selected.Render(line)
	case r.Playing:
		return styles.Playing.Render(line)
	case r.Favorite:
		return styles.Favorite.Render(marker+star) + styles.Text.Render(strings.TrimPrefix(line, marker+star))
	default:
		return styles.Text.Render(line)
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	switch {
	case m.searching:
		return m.search.View()
	case m.prompting:
		return m.prompt.View()
	case m.flash != "":
		return styles.Footer.Width(m.width).Render(truncate(m.flash, m.width-2))
	}
	h := help.New()
	h.ShortSeparator = "  "
	line := h.ShortHelpView(m.keys.ShortHelp())
	if q := m.search.Value(); q != "" {
		line = styles.AccentText.Render("/"+q) + "  " + line
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func truncate(s string, width int) string {
	if width <= 1 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

func sortArrow(mode int) string {
	if mode == state.SortDescending {
		return "↓"
	}
	return "↑"
}

func sortLabel(mode int) string {
	if mode == state.SortDescending {
		return "descending"
	}
	return "ascending"
}

func formatVolume(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func windowTitle(title string) string {
	if title == "" {
		return "MPV"
	}
	return title
}
