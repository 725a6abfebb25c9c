package tracking

import (
	"context"
	"strings"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/engine"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
)

type WindowCmd struct {
	Mode string `short:"m" help:"View mode (day|week|month|once). Defaults to view.default_mode."`
	Date string `short:"d" help:"Focus date (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
	Keys bool   `help:"Print the period keys the window covers."`
}

func (c *WindowCmd) Run(ctx *cli.Context) error {
	mode := c.Mode
	if mode == "" {
		mode = ctx.Config.View.DefaultMode
	}
	m, err := planner.ParseViewMode(mode)
	if err != nil {
		return err
	}
	focus, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	v, err := ctx.Engine.LoadView(context.Background(), ctx.Owner, m, focus)
	if err != nil {
		return err
	}
	w := v.Window

	if m == planner.ModeOnce {
		ctx.Println("Once window")
	} else {
		ctx.Printf("%s window %s .. %s\n", strings.ToUpper(string(m[:1]))+string(m[1:]), w.Start, w.End)
	}
	if c.Keys {
		ctx.Printf("Period keys: %s\n", strings.Join(w.PeriodKeys, " "))
	}

	tw := ctx.NewTable("Date", "", "Title", "Frequency")
	rows := 0
	for _, day := range planner.DueInWindow(w, v.Store.Activities(), allCompletions(v)) {
		date := "once"
		if !day.Date.IsZero() {
			date = day.Date.String() + " " + day.Date.Weekday().String()[:3]
		}
		for _, item := range day.Items {
			tw.AppendRow([]any{date, cli.Check(item.Completed()), item.Activity.Title, cli.FormatFrequency(item.Activity)})
			date = ""
			rows++
		}
	}
	if rows == 0 {
		ctx.Println("Nothing due in this window")
		return nil
	}
	tw.Render()
	return nil
}

func allCompletions(v *engine.View) []models.Completion {
	var out []models.Completion
	for _, a := range v.Store.Activities() {
		out = append(out, v.Store.Completions(a.ID)...)
	}
	return out
}
