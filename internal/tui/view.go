package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lifeplan/internal/planner"
	"github.com/julianstephens/lifeplan/internal/tui/components/agenda"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAdding:
		content = docStyle.Render(m.form.View())
	case StateConfirmArchive:
		content = m.viewConfirmArchive()
	default:
		content = docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.viewHeader(),
			"",
			agenda.Render(m.rows, m.cursor, m.today),
			m.viewStatus(),
		))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.help.View(m.keys),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for _, mode := range planner.Modes {
		title := strings.ToUpper(string(mode[:1])) + string(mode[1:])
		if mode == m.mode {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	var title string
	switch m.mode {
	case planner.ModeDay:
		title = fmt.Sprintf("%s %s", m.focus.Weekday(), m.focus)
	case planner.ModeWeek:
		title = fmt.Sprintf("Week of %s", m.view.Window.Start)
	case planner.ModeMonth:
		title = m.focus.Time(nil).Format("January 2006")
	default:
		title = "One-off activities"
	}
	header := titleStyle.Render(title)
	if m.mode == planner.ModeDay && m.view != nil {
		r := m.view.Store.CompletionRate(m.focus)
		header += fmt.Sprintf("  %d/%d done", r.Completed, r.Total)
	}
	if m.Dirty() {
		header += "  " + warningStyle.Render("● unsaved")
	}
	return header
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return dangerStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		return warningStyle.Render(m.status)
	default:
		return ""
	}
}

func (m Model) viewConfirmArchive() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Archive %q?", m.archive.Title)),
			"Its completions are kept.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
