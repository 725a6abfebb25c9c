// Package tui is the interactive day/week/month/once view. Toggles are
// applied to the loaded view at once and written through in the
// background; the header shows an unsaved marker until the write settles.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/engine"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
	"github.com/julianstephens/lifeplan/internal/tui/components/agenda"
)

type SessionState int

const (
	StateBrowse SessionState = iota
	StateAdding
	StateConfirmArchive
)

type Model struct {
	engine engine.Engine
	owner  string
	today  calendar.Date
	mode   planner.ViewMode
	focus  calendar.Date
	view   *engine.View
	rows   []agenda.Row
	cursor int
	// writing is set while a toggle is being written; later toggles wait in
	// queue so writes reach the ledger in the order they were made.
	writing bool
	queue   []writeRequest

	state    SessionState
	keys     KeyMap
	help     help.Model
	form     *huh.Form
	addForm  *AddFormModel
	archive  *models.Activity
	status   string
	err      error
	quitting bool
	width    int
	height   int
}

// NewModel loads the mode window around today for owner.
func NewModel(e engine.Engine, owner string, mode planner.ViewMode, today calendar.Date) (Model, error) {
	m := Model{
		engine: e,
		owner:  owner,
		today:  today,
		mode:   mode,
		focus:  today,
		state:  StateBrowse,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
	v, err := e.LoadView(context.Background(), owner, mode, today)
	if err != nil {
		return m, err
	}
	m.view = v
	m.rebuild()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

type writeRequest struct {
	activityID string
	date       calendar.Date
}

// writeResultMsg carries the outcome of a background toggle.
type writeResultMsg struct {
	activityID string
	date       calendar.Date
	saved      models.Completion
	err        error
}

func (m Model) writeToggle(activityID string, d calendar.Date) tea.Cmd {
	e, owner := m.engine, m.owner
	return func() tea.Msg {
		saved, err := e.Ledger().Toggle(context.Background(), owner, activityID, d)
		return writeResultMsg{activityID: activityID, date: d, saved: saved, err: err}
	}
}

// rebuild recomputes rows from the view and keeps the cursor on a
// selectable row.
func (m *Model) rebuild() {
	m.rows = agenda.Build(m.view)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	sel := agenda.Selectable(m.rows)
	if len(sel) == 0 {
		m.cursor = 0
		return
	}
	for _, i := range sel {
		if i >= m.cursor {
			m.cursor = i
			return
		}
	}
	m.cursor = sel[len(sel)-1]
}

func (m *Model) moveCursor(delta int) {
	sel := agenda.Selectable(m.rows)
	if len(sel) == 0 {
		return
	}
	pos := 0
	for i, idx := range sel {
		if idx == m.cursor {
			pos = i
			break
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(sel) {
		pos = len(sel) - 1
	}
	m.cursor = sel[pos]
}

func (m Model) selected() (agenda.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || !m.rows[m.cursor].Selectable() {
		return agenda.Row{}, false
	}
	return m.rows[m.cursor], true
}

// reload replans the window. It refuses while writes are in flight so a
// late result cannot land in a different window.
func (m *Model) reload(mode planner.ViewMode, focus calendar.Date) {
	if m.view.Pending() > 0 {
		m.status = "Saving, try again in a moment"
		return
	}
	if err := m.engine.Refresh(context.Background(), m.owner, m.view, mode, focus); err != nil {
		m.err = err
		return
	}
	m.mode, m.focus, m.err = mode, focus, nil
	m.cursor = 0
	m.rebuild()
}

func (m Model) Dirty() bool {
	return m.view != nil && m.view.Store.IsDirty()
}
