package story

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
)

// CreateCmd returns the story create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new story",
		Long: `Create a new story. Stories start as ideas, so only the fields
editable in the idea status can be set here; the rest unlock as the story
moves through refinement.

Examples:
  # Simple idea (human-readable output)
  storyboard story create --board=1 --title="Offline mode"

  # Quiet mode for bash capture
  STORY_ID=$(storyboard story create --board=1 --title="Offline mode" --quiet)

  # Full example with all options
  storyboard story create \
    --board=1 \
    --title="Offline mode" \
    --description="Cache the last sync for flights" \
    --tag=frontend,performance \
    --value=70 \
    --problem-validated
`,
		RunE: runCreate,
	}

	// Required flags
	cmd.Flags().String("title", "", "Story title (required)")
	if err := cmd.MarkFlagRequired("title"); err != nil {
		slog.Error("Error marking flag as required", "error", err)
	}

	// Optional flags
	cmd.Flags().Int("board", 0, "Board ID (uses STORYBOARD_BOARD env var if not specified)")
	cmd.Flags().String("description", "", "Story description in markdown (use - for stdin)")
	cmd.Flags().StringSlice("tag", nil, "Tag from the vocabulary (repeatable or comma-separated)")
	cmd.Flags().Int("value", 0, "Business value, 1-100")
	cmd.Flags().Bool("problem-validated", false, "Mark the problem as validated")
	addAuthorFlag(cmd)

	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.GetBoardID(cmd)
	if err != nil {
		return cli.Usage(formatter, "NO_BOARD", err.Error(),
			"Set board with: eval $(storyboard use board <board-id>)")
	}

	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	validated, _ := cmd.Flags().GetBool("problem-validated")

	description, err = cli.ReadText(description)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	req := storyservice.CreateStoryRequest{
		BoardID:          boardID,
		Title:            title,
		Description:      description,
		Tags:             cli.SplitList(tags),
		ProblemValidated: validated,
	}
	if cmd.Flags().Changed("value") {
		v, _ := cmd.Flags().GetInt("value")
		req.BusinessValue = &v
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

	req.Author = author(cmd, cliInstance)
	story, err := cliInstance.App.StoryService.CreateStory(ctx, req)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(story)
	}
	fmt.Printf("✓ Story '%s' created successfully (ID: %d)\n", story.Title, story.ID)
	return nil
}
