package story

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
)

// DependCmd returns the story depend subcommand
func DependCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depend <id>",
		Short: "Make a story depend on another",
		Long: `Record that a story cannot start until another story on the same
board is done. A story cannot depend on itself and cycles are rejected.

Examples:
  storyboard story depend 7 --on 4
  storyboard story depend 7 --on 4 --remove
`,
		Args: cobra.ExactArgs(1),
		RunE: runDepend,
	}

	cmd.Flags().Int("on", 0, "ID of the story this one depends on (required)")
	if err := cmd.MarkFlagRequired("on"); err != nil {
		slog.Error("Error marking flag as required", "error", err)
	}
	cmd.Flags().Bool("remove", false, "Remove the dependency instead of adding it")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runDepend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story depend <id> --on <id>")
	}
	dependsOn, _ := cmd.Flags().GetInt("on")
	remove, _ := cmd.Flags().GetBool("remove")

	cliInstance, err := cli.Open(cmd, formatter)
	if err != nil {
		return err
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("Error closing CLI", "error", err)
		}
	}()

	svc := cliInstance.App.StoryService
	if remove {
		err = svc.RemoveDependency(ctx, storyID, dependsOn)
	} else {
		err = svc.AddDependency(ctx, storyID, dependsOn)
	}
	if err != nil {
		return cli.Fail(formatter, err)
	}

	story, err := svc.GetStory(ctx, storyID)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(story)
	}
	if remove {
		fmt.Printf("✓ Story %d no longer depends on %d\n", storyID, dependsOn)
	} else {
		fmt.Printf("✓ Story %d now depends on %d\n", storyID, dependsOn)
	}
	return nil
}
