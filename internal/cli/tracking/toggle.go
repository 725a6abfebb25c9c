package tracking

import (
	"context"

	"github.com/julianstephens/lifeplan/internal/cli"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
)

type ToggleCmd struct {
	ID   string `arg:"" help:"Activity id."`
	Date string `short:"d" help:"Date (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	d, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	saved, err := ctx.Engine.Toggle(context.Background(), nil, ctx.Owner, c.ID, d)
	if err != nil && !apperr.Is(err, apperr.KindConflict) {
		return err
	}
	if err != nil {
		ctx.Println("Another writer recorded this completion first; showing the stored state.")
	}
	state := "not done"
	if saved.Completed {
		state = "done"
	}
	ctx.Printf("%s is %s for %s\n", c.ID, state, saved.PeriodKey)
	return nil
}

type NoteCmd struct {
	ID    string `arg:"" help:"Activity id."`
	Notes string `arg:"" help:"Notes for the completion (empty clears them)."`
	Date  string `short:"d" help:"Date (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
}

func (c *NoteCmd) Run(ctx *cli.Context) error {
	d, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	saved, err := ctx.Engine.SetNotes(context.Background(), nil, ctx.Owner, c.ID, d, c.Notes)
	if err != nil && !apperr.Is(err, apperr.KindConflict) {
		return err
	}
	ctx.Printf("Notes saved for %s (%s)\n", c.ID, saved.PeriodKey)
	return nil
}
