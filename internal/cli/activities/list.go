package activities

import (
	"context"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/models"
)

type ListCmd struct {
	All           bool   `short:"a" help:"Include archived activities."`
	Domain        string `help:"Only activities in this domain."`
	Goal          string `help:"Only activities for this goal."`
	Uncategorized bool   `help:"Only activities with no domain and no goal."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	activities, err := ctx.Engine.ListActivities(context.Background(), ctx.Owner, c.All)
	if err != nil {
		return err
	}
	filter := Filter(c.Domain, c.Goal, c.Uncategorized)

	tw := ctx.NewTable("ID", "Title", "Frequency", "Time", "Domain", "Goal", "Status")
	shown := 0
	for _, a := range activities {
		if !filter.Matches(a) {
			continue
		}
		status := "active"
		if a.IsArchived {
			status = "archived"
		}
		tw.AppendRow([]any{a.ID, a.Title, cli.FormatFrequency(a), a.TimeOfDay, cli.Deref(a.DomainID), cli.Deref(a.GoalID), status})
		shown++
	}
	if shown == 0 {
		ctx.Println("No activities found")
		return nil
	}
	tw.Render()
	return nil
}

// Filter builds the category filter for the --domain, --goal and
// --uncategorized flags. Domain wins over goal.
func Filter(domain, goal string, uncategorized bool) models.CategoryFilter {
	switch {
	case domain != "":
		return models.ByDomain(domain)
	case goal != "":
		return models.ByGoal(goal)
	case uncategorized:
		return models.Uncategorized()
	default:
		return models.CategoryFilter{}
	}
}
