package story

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/models"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
)

// UpdateCmd returns the story update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a story",
		Long: `Update the fields of a story. Only the flags you pass are changed,
and each one must be editable in the story's current status
(see 'storyboard story fields <id>').

Examples:
  storyboard story update 4 --points=5 --moscow=must
  storyboard story update 4 --criterion="works offline" --criterion="syncs on reconnect"
  storyboard story update 4 --assignee=Ana,Bo
  storyboard story update 4 --criteria-agreed
  storyboard story update 4 --clear-points
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUpdate,
	}

	cmd.Flags().Int("id", 0, "Story ID (can also be provided as positional argument)")
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description (use - for stdin)")
	cmd.Flags().StringSlice("tag", nil, "Replace tags (repeatable or comma-separated; pass '' to clear)")
	cmd.Flags().StringSlice("assignee", nil, "Replace assignees by member name")
	cmd.Flags().StringArray("criterion", nil, "Replace acceptance criteria (repeatable, max 5)")
	cmd.Flags().Int("value", 0, "Business value, 1-100")
	cmd.Flags().Bool("clear-value", false, "Unset the business value")
	cmd.Flags().Int("points", 0, "Story points: 0, 1, 2, 3, 5, 8, 13, 21")
	cmd.Flags().Bool("clear-points", false, "Unset the story points")
	cmd.Flags().String("moscow", "", "MoSCoW bucket: must, should, could, wont, none")

	// Checklist
	cmd.Flags().Bool("problem-validated", false, "Problem validated")
	cmd.Flags().Bool("criteria-agreed", false, "Acceptance criteria agreed")
	cmd.Flags().Bool("dev-complete", false, "Development complete")
	cmd.Flags().Bool("qa-passed", false, "QA passed")

	addAuthorFlag(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story update <id> [flags]")
	}

	req, err := buildUpdate(cmd, storyID)
	if err != nil {
		return cli.Fail(formatter, err)
	}
	if !hasChanges(cmd) {
		return cli.Usage(formatter, "NO_UPDATES", "nothing to update",
			"Use 'storyboard story fields <id>' to see which fields can be changed")
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
	story, err := cliInstance.App.StoryService.UpdateStory(ctx, req)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(story)
	}
	fmt.Printf("✓ Story %d updated\n  %s\n", story.ID, summary(story))
	return nil
}

var updateFlags = []string{
	"title", "description", "tag", "assignee", "criterion",
	"value", "clear-value", "points", "clear-points", "moscow",
	"problem-validated", "criteria-agreed", "dev-complete", "qa-passed",
}

func hasChanges(cmd *cobra.Command) bool {
	for _, name := range updateFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// buildUpdate turns the changed flags into a partial update
func buildUpdate(cmd *cobra.Command, storyID int) (storyservice.UpdateStoryRequest, error) {
	req := storyservice.UpdateStoryRequest{StoryID: storyID}
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		req.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		v, err := cli.ReadText(v)
		if err != nil {
			return req, err
		}
		req.Description = &v
	}
	if flags.Changed("tag") {
		v, _ := flags.GetStringSlice("tag")
		tags := cli.SplitList(v)
		req.Tags = &tags
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetStringSlice("assignee")
		assignees := cli.SplitList(v)
		req.Assignees = &assignees
	}
	if flags.Changed("criterion") {
		v, _ := flags.GetStringArray("criterion")
		req.AcceptanceCriteria = &v
	}
	if flags.Changed("value") {
		v, _ := flags.GetInt("value")
		req.BusinessValue = &v
	}
	req.ClearBusinessValue, _ = flags.GetBool("clear-value")
	if flags.Changed("points") {
		v, _ := flags.GetInt("points")
		req.StoryPoints = &v
	}
	req.ClearStoryPoints, _ = flags.GetBool("clear-points")
	if flags.Changed("moscow") {
		raw, _ := flags.GetString("moscow")
		m, err := models.ParseMoSCoW(raw)
		if err != nil {
			return req, err
		}
		req.MoSCoW = &m
	}

	checklist := map[string]**bool{
		"problem-validated": &req.ProblemValidated,
		"criteria-agreed":   &req.CriteriaAgreed,
		"dev-complete":      &req.DevComplete,
		"qa-passed":         &req.QAPassed,
	}
	for name, dst := range checklist {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			*dst = &v
		}
	}

	return req, nil
}
