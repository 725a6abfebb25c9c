package tracking

import (
	"context"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/cli/activities"
	"github.com/julianstephens/lifeplan/internal/planner"
)

type DueCmd struct {
	Date          string `short:"d" help:"Date (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
	Domain        string `help:"Only activities in this domain."`
	Goal          string `help:"Only activities for this goal."`
	Uncategorized bool   `help:"Only activities with no domain and no goal."`
}

func (c *DueCmd) Run(ctx *cli.Context) error {
	d, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	v, err := ctx.Engine.LoadView(context.Background(), ctx.Owner, planner.ModeDay, d)
	if err != nil {
		return err
	}
	v.Store.SetFilter(activities.Filter(c.Domain, c.Goal, c.Uncategorized))

	due := v.Store.ActivitiesDueOn(d)
	if len(due) == 0 {
		ctx.Printf("Nothing due on %s\n", d)
		return nil
	}
	ctx.Printf("Due on %s (%s):\n", d, d.Weekday())
	tw := ctx.NewTable("", "ID", "Title", "Frequency", "Time")
	for _, a := range due {
		tw.AppendRow([]any{cli.Check(v.Store.CompletedOn(a.ID, d)), a.ID, a.Title, cli.FormatFrequency(a), a.TimeOfDay})
	}
	tw.Render()
	r := v.Store.CompletionRate(d)
	ctx.Printf("%d/%d done\n", r.Completed, r.Total)
	return nil
}

type RateCmd struct {
	Date          string `short:"d" help:"Date (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
	Domain        string `help:"Only activities in this domain."`
	Goal          string `help:"Only activities for this goal."`
	Uncategorized bool   `help:"Only activities with no domain and no goal."`
}

func (c *RateCmd) Run(ctx *cli.Context) error {
	d, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	v, err := ctx.Engine.LoadView(context.Background(), ctx.Owner, planner.ModeDay, d)
	if err != nil {
		return err
	}
	v.Store.SetFilter(activities.Filter(c.Domain, c.Goal, c.Uncategorized))
	r := v.Store.CompletionRate(d)
	pct := 0
	if r.Total > 0 {
		pct = r.Completed * 100 / r.Total
	}
	ctx.Printf("%s: %d/%d (%d%%)\n", d, r.Completed, r.Total, pct)
	return nil
}
