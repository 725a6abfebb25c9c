package tracking

import (
	"context"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/planner"
)

type OnceCmd struct {
	Completed bool `short:"c" help:"Also list completed one-off activities."`
}

func (c *OnceCmd) Run(ctx *cli.Context) error {
	v, err := ctx.Engine.LoadView(context.Background(), ctx.Owner, planner.ModeOnce, ctx.Today())
	if err != nil {
		return err
	}
	pending, completed := v.Store.OncePartition()
	if len(pending) == 0 && (!c.Completed || len(completed) == 0) {
		ctx.Println("No one-off activities pending")
		return nil
	}
	tw := ctx.NewTable("", "ID", "Title")
	for _, a := range pending {
		tw.AppendRow([]any{cli.Check(false), a.ID, a.Title})
	}
	if c.Completed {
		for _, a := range completed {
			tw.AppendRow([]any{cli.Check(true), a.ID, a.Title})
		}
	}
	tw.Render()
	ctx.Printf("%d pending, %d completed\n", len(pending), len(completed))
	return nil
}
