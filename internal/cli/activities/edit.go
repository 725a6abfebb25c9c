package activities

import (
	"context"
	"strings"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/models"
)

type EditCmd struct {
	ID        string  `arg:"" help:"Activity id."`
	Title     *string `help:"New title."`
	Frequency *string `short:"f" help:"New frequency (daily|weekly|monthly|once)."`
	Days      *string `short:"w" help:"New weekdays; an empty value means every day."`
	Times     *int    `short:"n" help:"New advisory count per period."`
	At        *string `short:"t" help:"New time of day (HH:MM); empty clears it."`
	Domain    *string `help:"New domain id; empty clears it."`
	Goal      *string `help:"New goal id; empty clears it."`
	Notes     *string `help:"New notes."`
	Order     *int    `help:"New list position."`
	Unarchive bool    `help:"Restore an archived activity."`
}

// Patch converts the set flags into an activity patch.
func (c *EditCmd) Patch() (models.ActivityPatch, error) {
	var p models.ActivityPatch
	p.Title = c.Title
	p.Notes = c.Notes
	p.TimeOfDay = c.At
	p.FrequencyValue = c.Times
	p.OrderPosition = c.Order
	if c.Frequency != nil {
		f := models.FrequencyType(strings.ToUpper(*c.Frequency))
		p.FrequencyType = &f
	}
	if c.Days != nil {
		days, err := calendar.ParseWeekdays(*c.Days)
		if err != nil {
			return p, err
		}
		if days == nil {
			days = []calendar.Weekday{}
		}
		p.ScheduledDays = &days
	}
	if c.Domain != nil {
		id := cli.OptionalString(*c.Domain)
		p.DomainID = &id
	}
	if c.Goal != nil {
		id := cli.OptionalString(*c.Goal)
		p.GoalID = &id
	}
	if c.Unarchive {
		archived := false
		p.IsArchived = &archived
	}
	return p, nil
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	patch, err := c.Patch()
	if err != nil {
		return err
	}
	if patch.Empty() {
		ctx.Println("Nothing to change")
		return nil
	}
	updated, err := ctx.Engine.UpdateActivity(context.Background(), nil, ctx.Owner, c.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("Updated activity: %s (%s)\n", updated.Title, cli.FormatFrequency(updated))
	return nil
}
