// Package planner derives the date range and period-key set a view needs.
//
// The key set bounds the completion read for a view: every completion that
// can affect a date in the window carries a key in the set, and no date
// outside the window contributes one.
package planner

import (
	"fmt"
	"strings"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/ledger"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/recurrence"
)

type ViewMode string

const (
	ModeDay   ViewMode = "day"
	ModeWeek  ViewMode = "week"
	ModeMonth ViewMode = "month"
	ModeOnce  ViewMode = "once"
)

// Modes lists the view modes in tab order.
var Modes = []ViewMode{ModeDay, ModeWeek, ModeMonth, ModeOnce}

func ParseViewMode(s string) (ViewMode, error) {
	mode := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Modes {
		if mode == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid view mode %q (expected day, week, month or once)", s)
}

// Window is the result of PlanWindow.
type Window struct {
	Mode       ViewMode      `json:"mode"`
	Focus      calendar.Date `json:"focus"`
	Start      calendar.Date `json:"start"`
	End        calendar.Date `json:"end"`
	PeriodKeys []string      `json:"period_keys"`
}

// PlanWindow returns the window for mode centered on focus.
func PlanWindow(mode ViewMode, focus calendar.Date) (Window, error) {
	w := Window{Mode: mode, Focus: focus}
	switch mode {
	case ModeDay:
		w.Start, w.End = focus, focus
		w.PeriodKeys = []string{
			calendar.DayKey(focus),
			calendar.ISOWeekKey(focus),
			calendar.MonthKey(focus),
			calendar.OnceKey(),
		}
	case ModeWeek:
		w.Start = calendar.StartOfWeek(focus)
		w.End = w.Start.AddDays(6)
		w.PeriodKeys = append(dayKeys(w.Start, w.End), calendar.ISOWeekKey(focus), calendar.OnceKey())
	case ModeMonth:
		w.Start = calendar.StartOfMonth(focus)
		w.End = calendar.EndOfMonth(focus)
		w.PeriodKeys = append(dayKeys(w.Start, w.End), calendar.MonthKey(focus), calendar.OnceKey())
	case ModeOnce:
		w.Start, w.End = calendar.MinDate, calendar.MaxDate
		w.PeriodKeys = []string{calendar.OnceKey()}
	default:
		return Window{}, fmt.Errorf("invalid view mode %q", mode)
	}
	return w, nil
}

func dayKeys(start, end calendar.Date) []string {
	days := calendar.Range(start, end)
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = calendar.DayKey(d)
	}
	return keys
}

// Contains reports whether d lies in [Start, End].
func (w Window) Contains(d calendar.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days lists the dates of a day, week or month window. The once window has
// no day list and returns nil.
func (w Window) Days() []calendar.Date {
	if w.Mode == ModeOnce {
		return nil
	}
	return calendar.Range(w.Start, w.End)
}

// KeySet returns PeriodKeys as a set.
func (w Window) KeySet() map[string]bool {
	set := make(map[string]bool, len(w.PeriodKeys))
	for _, k := range w.PeriodKeys {
		set[k] = true
	}
	return set
}

// Shift moves focus by n steps of mode: days, weeks or months. The once
// view has no date axis and returns focus unchanged.
func Shift(mode ViewMode, focus calendar.Date, n int) calendar.Date {
	switch mode {
	case ModeDay:
		return focus.AddDays(n)
	case ModeWeek:
		return focus.AddDays(7 * n)
	case ModeMonth:
		return focus.AddMonths(n)
	default:
		return focus
	}
}

// DueItem is one activity due on one day of a window.
type DueItem struct {
	Activity   models.Activity    `json:"activity"`
	Completion *models.Completion `json:"completion,omitempty"`
}

func (i DueItem) Completed() bool {
	return i.Completion != nil && i.Completion.Completed
}

// DueDay groups the items due on Date.
type DueDay struct {
	Date  calendar.Date `json:"date"`
	Items []DueItem     `json:"items"`
}

// DueInWindow expands w into the activities due on each of its days, paired
// with the completion recorded under that day's key. Archived activities are
// skipped. The once window yields a single entry dated at focus holding the
// pending ONCE activities.
func DueInWindow(w Window, activities []models.Activity, completions []models.Completion) []DueDay {
	byKey := make(map[string]*models.Completion, len(completions))
	for i := range completions {
		c := &completions[i]
		byKey[c.ActivityID+"|"+c.PeriodKey] = c
	}

	if w.Mode == ModeOnce {
		day := DueDay{Date: w.Focus, Items: []DueItem{}}
		for _, a := range activities {
			if a.IsArchived || a.FrequencyType != models.FrequencyOnce {
				continue
			}
			if recurrence.IsDueOn(a, w.Focus, completions) {
				day.Items = append(day.Items, DueItem{Activity: a, Completion: byKey[a.ID+"|"+calendar.OncePeriodKey]})
			}
		}
		return []DueDay{day}
	}

	days := w.Days()
	out := make([]DueDay, 0, len(days))
	for _, d := range days {
		day := DueDay{Date: d, Items: []DueItem{}}
		for _, a := range recurrence.Due(activities, d, completions) {
			key := a.ID + "|" + ledger.PeriodKeyFor(a, d)
			day.Items = append(day.Items, DueItem{Activity: a, Completion: byKey[key]})
		}
		out = append(out, day)
	}
	return out
}
