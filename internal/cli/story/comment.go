package story

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
)

// CommentCmd returns the story comment subcommand
func CommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment [id]",
		Short: "Add a comment to a story",
		Long: `Add a comment to a story's activity log. Comments are allowed in
every status.

Examples:
  storyboard story comment 4 -m "talked to support, this is real"
  echo "long notes" | storyboard story comment 4 -m -
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runComment,
	}

	cmd.Flags().Int("id", 0, "Story ID (can also be provided as positional argument)")
	cmd.Flags().StringP("message", "m", "", "Comment message (required, max 1000 chars, use - for stdin)")
	if err := cmd.MarkFlagRequired("message"); err != nil {
		slog.Error("Error marking flag as required", "error", err)
	}
	addAuthorFlag(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func runComment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story comment <id> -m <message>")
	}
	message, _ := cmd.Flags().GetString("message")
	if message, err = cli.ReadText(message); err != nil {
		return cli.Fail(formatter, err)
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

	comment, err := cliInstance.App.StoryService.AddComment(ctx, storyservice.CommentRequest{
		StoryID: storyID,
		Author:  author(cmd, cliInstance),
		Message: message,
	})
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(comment)
	}
	fmt.Printf("✓ Comment added to story %d (ID: %d)\n", storyID, comment.ID)
	return nil
}
