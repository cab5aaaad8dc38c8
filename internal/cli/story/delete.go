package story

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
)

// DeleteCmd returns the story delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a story",
		Long:  "Delete a story by ID (requires confirmation unless --force, --json or --quiet).",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDelete,
	}

	cmd.Flags().Int("id", 0, "Story ID (can also be provided as positional argument)")
	cmd.Flags().Bool("force", false, "Skip confirmation")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)
	force, _ := cmd.Flags().GetBool("force")

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story delete <id>")
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

	if !force && formatter.Human() {
		fmt.Printf("Delete story #%d: '%s'? (y/N): ", storyID, story.Title)
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			slog.Debug("Error reading user input", "error", err)
		}
		if r := strings.ToLower(response); r != "y" && r != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := cliInstance.App.StoryService.DeleteStory(ctx, storyID); err != nil {
		return cli.Fail(formatter, err)
	}

	switch {
	case formatter.Quiet:
		return nil
	case formatter.JSON:
		return formatter.Success(map[string]any{"story_id": storyID})
	}
	fmt.Printf("✓ Story %d deleted successfully\n", storyID)
	return nil
}
