package system

import (
	"context"
	"strings"

	"github.com/julianstephens/lifeplan/internal/cli"
)

type ValidateCmd struct {
	Table bool `help:"Show issues as a table." short:"T"`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	result, err := ctx.Engine.Validate(context.Background(), ctx.Owner)
	if err != nil {
		return err
	}
	if !c.Table || !result.HasIssues() {
		ctx.Println(strings.TrimSuffix(result.FormatReport(), "\n"))
		return nil
	}

	tw := ctx.NewTable("Type", "Activities", "Description")
	for _, issue := range result.Issues {
		tw.AppendRow([]any{issue.Type, strings.Join(issue.ActivityIDs, ", "), issue.Description})
	}
	tw.Render()
	return nil
}
