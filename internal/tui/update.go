package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case writeResultMsg:
		return m.handleWriteResult(msg)
	}

	switch m.state {
	case StateAdding:
		return m.updateAdding(msg)
	case StateConfirmArchive:
		return m.updateConfirmArchive(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.Tab):
		m.reload(nextMode(m.mode, 1), m.focus)
	case key.Matches(keyMsg, m.keys.ShiftTab):
		m.reload(nextMode(m.mode, -1), m.focus)
	case key.Matches(keyMsg, m.keys.Prev):
		m.reload(m.mode, planner.Shift(m.mode, m.focus, -1))
	case key.Matches(keyMsg, m.keys.Next):
		m.reload(m.mode, planner.Shift(m.mode, m.focus, 1))
	case key.Matches(keyMsg, m.keys.Today):
		m.reload(m.mode, m.today)
	case key.Matches(keyMsg, m.keys.Refresh):
		m.reload(m.mode, m.focus)
	case key.Matches(keyMsg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(keyMsg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(keyMsg, m.keys.Toggle):
		return m.toggleSelected()
	case key.Matches(keyMsg, m.keys.Add):
		m.addForm = &AddFormModel{Frequency: models.FrequencyDaily}
		m.form = NewAddForm(m.addForm)
		m.state = StateAdding
		return m, m.form.Init()
	case key.Matches(keyMsg, m.keys.Archive):
		if row, ok := m.selected(); ok {
			a := row.Activity
			m.archive = &a
			m.state = StateConfirmArchive
		}
	}
	return m, nil
}

func nextMode(current planner.ViewMode, step int) planner.ViewMode {
	n := len(planner.Modes)
	for i, mode := range planner.Modes {
		if mode == current {
			return planner.Modes[((i+step)%n+n)%n]
		}
	}
	return planner.ModeDay
}

// toggleSelected flips the selected row in the view and starts the write.
// Once rows toggle against the focus date.
func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	row, ok := m.selected()
	if !ok {
		return m, nil
	}
	d := row.Date
	if d.IsZero() {
		d = m.focus
	}
	if _, err := m.engine.ToggleLocal(m.view, m.owner, row.Activity.ID, d); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = ""
	m.rebuild()
	if m.writing {
		m.queue = append(m.queue, writeRequest{activityID: row.Activity.ID, date: d})
		return m, nil
	}
	m.writing = true
	return m, m.writeToggle(row.Activity.ID, d)
}

// handleWriteResult reconciles a finished write and starts the next queued
// one.
func (m Model) handleWriteResult(msg writeResultMsg) (Model, tea.Cmd) {
	m.writing = false
	err := m.engine.Reconcile(m.view, msg.activityID, msg.date, msg.saved, msg.err)
	switch {
	case err == nil:
		m.err = nil
	case apperr.Is(err, apperr.KindConflict):
		m.status = "Another session saved this first; showing the stored state"
	default:
		m.err = err
	}
	m.rebuild()

	if len(m.queue) == 0 {
		return m, nil
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.writing = true
	return m, m.writeToggle(next.activityID, next.date)
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = StateBrowse
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateBrowse
		a, err := m.addForm.Activity()
		if err != nil {
			m.err = err
			return m, nil
		}
		created, err := m.engine.CreateActivity(context.Background(), m.view, m.owner, a)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = "Added " + created.Title
		m.rebuild()
		return m, nil
	case huh.StateAborted:
		m.state = StateBrowse
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirmArchive(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		archived, err := m.engine.ArchiveActivity(context.Background(), m.view, m.owner, m.archive.ID)
		if err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "Archived " + archived.Title
		}
		m.rebuild()
		m.archive = nil
		m.state = StateBrowse
	case "n", "N", "esc", "q":
		m.archive = nil
		m.state = StateBrowse
	}
	return m, nil
}
