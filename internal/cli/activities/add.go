package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/models"
)

type AddCmd struct {
	Title     string `arg:"" help:"Activity title."`
	Frequency string `short:"f" help:"Frequency (daily|weekly|monthly|once)." default:"daily"`
	Days      string `short:"w" help:"Comma-separated weekdays for weekly activities (L,M,X,J,V,S,D or mon..sun)."`
	Times     int    `short:"n" help:"Advisory number of times per period."`
	At        string `short:"t" help:"Advisory time of day (HH:MM)."`
	Domain    string `help:"Life domain id."`
	Goal      string `help:"Goal id."`
	Notes     string `help:"Free-form notes."`
	Source    string `help:"Source (manual|wheel|odyssey)." default:"manual"`
	SourceID  string `name:"source-id" help:"Id of the source item for wheel or odyssey activities."`
	Order     int    `help:"Position in lists."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	days, err := calendar.ParseWeekdays(c.Days)
	if err != nil {
		return err
	}
	a := models.Activity{
		Title:          strings.TrimSpace(c.Title),
		Notes:          c.Notes,
		DomainID:       cli.OptionalString(c.Domain),
		GoalID:         cli.OptionalString(c.Goal),
		SourceType:     models.SourceType(strings.ToUpper(c.Source)),
		SourceID:       cli.OptionalString(c.SourceID),
		FrequencyType:  models.FrequencyType(strings.ToUpper(c.Frequency)),
		FrequencyValue: c.Times,
		ScheduledDays:  days,
		TimeOfDay:      c.At,
		OrderPosition:  c.Order,
	}

	created, err := ctx.Engine.CreateActivity(context.Background(), nil, ctx.Owner, a)
	if err != nil {
		return err
	}
	ctx.Printf("Added activity: %s (%s)\n", created.Title, cli.FormatFrequency(created))
	ctx.Printf("ID: %s\n", created.ID)
	if len(days) > 0 && created.FrequencyType != models.FrequencyWeekly {
		fmt.Fprintln(ctx.Out, "Note: scheduled days only apply to weekly activities.")
	}
	return nil
}
