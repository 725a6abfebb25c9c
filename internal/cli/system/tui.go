package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/planner"
	"github.com/julianstephens/lifeplan/internal/tui"
)

type TuiCmd struct {
	Mode string `help:"View to open in (day, week, month, once). Defaults to view.default_mode." short:"m"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	modeName := c.Mode
	if modeName == "" {
		modeName = ctx.Config.View.DefaultMode
	}
	mode, err := planner.ParseViewMode(modeName)
	if err != nil {
		return err
	}

	m, err := tui.NewModel(ctx.Engine, ctx.Owner, mode, ctx.Today())
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}
