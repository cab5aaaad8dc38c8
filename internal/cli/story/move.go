package story

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/models"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
)

// MoveCmd returns the story move subcommand
func MoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> <status|next|prev>",
		Short: "Move a story to another status",
		Long: `Move a story through the workflow:
idea → refinement → ready → in_progress → review → done

Forward moves must pass every gate between the two statuses; a blocked move
lists what is missing. Moving back is always allowed and clears the
checklist flags of the statuses left behind.

Examples:
  storyboard story move 4 next
  storyboard story move 4 ready
  storyboard story move 4 prev --json
`,
		Args: cobra.ExactArgs(2),
		RunE: runMove,
	}

	addAuthorFlag(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args[:1])
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story move <id> <status|next|prev>")
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

	current, err := cliInstance.App.StoryService.GetStory(ctx, storyID)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	target, err := resolveTarget(current.Status, args[1])
	if err != nil {
		return cli.Usage(formatter, "INVALID_STATUS", err.Error(),
			"Valid targets: next, prev, idea, refinement, ready, in_progress, review, done")
	}

	moved, err := cliInstance.App.StoryService.MoveStory(ctx, storyservice.MoveStoryRequest{
		StoryID: storyID,
		Status:  target,
		Author:  author(cmd, cliInstance),
	})
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(moved)
	}
	fmt.Printf("✓ Story %d moved from %s to %s\n", moved.ID, current.Status.Title(), moved.Status.Title())
	return nil
}

// resolveTarget maps next/prev relative to current, or parses a status name
func resolveTarget(current models.Status, arg string) (models.Status, error) {
	switch strings.ToLower(arg) {
	case "next":
		next, ok := current.Next()
		if !ok {
			return "", fmt.Errorf("story is already in the last status (%s)", current.Title())
		}
		return next, nil
	case "prev", "previous":
		prev, ok := current.Prev()
		if !ok {
			return "", fmt.Errorf("story is already in the first status (%s)", current.Title())
		}
		return prev, nil
	}
	return models.ParseStatus(arg)
}
