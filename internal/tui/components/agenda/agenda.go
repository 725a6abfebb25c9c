// Package agenda flattens a loaded view into the rows the TUI lists.
package agenda

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/engine"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
)

// Row is either a date heading or an activity due on Date. Once rows carry
// the zero date.
type Row struct {
	Heading   string
	Date      calendar.Date
	Activity  models.Activity
	Completed bool
}

func (r Row) Selectable() bool {
	return r.Heading == ""
}

var (
	headingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Strikethrough(true)
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	checkedMark   = "[x]"
	uncheckedMark = "[ ]"
)

// Build lists v's window. Day windows omit the heading; week and month
// windows head each day that has something due; the once window lists
// pending activities first and then completed ones.
func Build(v *engine.View) []Row {
	if v == nil {
		return nil
	}
	if v.Window.Mode == planner.ModeOnce {
		pending, completed := v.Store.OncePartition()
		var rows []Row
		if len(pending) > 0 {
			rows = append(rows, Row{Heading: "Pending"})
			for _, a := range pending {
				rows = append(rows, Row{Activity: a})
			}
		}
		if len(completed) > 0 {
			rows = append(rows, Row{Heading: "Done"})
			for _, a := range completed {
				rows = append(rows, Row{Activity: a, Completed: true})
			}
		}
		return rows
	}

	var rows []Row
	for _, d := range v.Window.Days() {
		due := v.Store.ActivitiesDueOn(d)
		if len(due) == 0 {
			continue
		}
		if v.Window.Mode != planner.ModeDay {
			rows = append(rows, Row{Heading: fmt.Sprintf("%s %s", d.Weekday().String()[:3], d), Date: d})
		}
		for _, a := range due {
			rows = append(rows, Row{Date: d, Activity: a, Completed: v.Store.CompletedOn(a.ID, d)})
		}
	}
	return rows
}

// Selectable returns the indexes of rows the cursor may rest on.
func Selectable(rows []Row) []int {
	var out []int
	for i, r := range rows {
		if r.Selectable() {
			out = append(out, i)
		}
	}
	return out
}

// Render draws rows with the cursor on rows[cursor]. today is highlighted in
// headings.
func Render(rows []Row, cursor int, today calendar.Date) string {
	if len(rows) == 0 {
		return emptyStyle.Render("Nothing due. Press 'a' to add an activity.")
	}
	var b strings.Builder
	for i, r := range rows {
		if !r.Selectable() {
			style := headingStyle
			if r.Date == today {
				style = todayStyle
			}
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(style.Render(r.Heading))
			b.WriteString("\n")
			continue
		}
		mark := uncheckedMark
		title := r.Activity.Title
		if r.Completed {
			mark = checkedMark
			title = doneStyle.Render(title)
		}
		if r.Activity.TimeOfDay != "" {
			title = r.Activity.TimeOfDay + " " + title
		}
		line := fmt.Sprintf("%s %s", mark, title)
		if i == cursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
