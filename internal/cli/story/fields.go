package story

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// FieldsCmd returns the story fields subcommand
func FieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields [id]",
		Short: "Show which fields are visible and editable",
		Long:  "Show the access level of every story field in the story's current status.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFields,
	}

	cmd.Flags().Int("id", 0, "Story ID (can also be provided as positional argument)")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runFields(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story fields <id>")
	}

	cliInstance, err := cli.Open(cmd, formatter)
	if err != nil {
		return err
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("Error closing CLI", "error", err)
		}
	}()

	story, err := cliInstance.App.StoryService.GetStory(ctx, storyID)
	if err != nil {
		return cli.Fail(formatter, err)
	}
	access := workflow.FieldAccess(story.Status)

	if !formatter.Human() {
		return formatter.Success(api.FieldsResponse{
			StoryID: story.ID,
			Status:  story.Status,
			Fields:  access,
		})
	}

	fmt.Printf("Story %d is in %s\n\n", story.ID, styles.TitleStyle.Render(story.Status.Title()))
	for _, f := range workflow.Fields {
		level := access[f]
		rendered := styles.SubtitleStyle.Render(level.String())
		if level == workflow.Editable {
			rendered = styles.SuccessStyle.Render(level.String())
		}
		fmt.Printf("  %-20s %s\n", f, rendered)
	}
	return nil
}
