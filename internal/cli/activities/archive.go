package activities

import (
	"context"
	"fmt"

	"github.com/julianstephens/lifeplan/internal/cli"
)

type ArchiveCmd struct {
	ID string `arg:"" help:"Activity id."`
}

func (c *ArchiveCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Engine.ArchiveActivity(context.Background(), nil, ctx.Owner, c.ID)
	if err != nil {
		return err
	}
	ctx.Printf("Archived activity: %s\n", a.Title)
	return nil
}

type DeleteCmd struct {
	ID  string `arg:"" help:"Activity id."`
	Yes bool   `short:"y" help:"Confirm permanent deletion."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		return fmt.Errorf("deleting removes the activity and all of its completions; rerun with --yes to confirm, or use 'activity archive'")
	}
	if err := ctx.Engine.DeleteActivity(context.Background(), nil, ctx.Owner, c.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted activity %s\n", c.ID)
	return nil
}
