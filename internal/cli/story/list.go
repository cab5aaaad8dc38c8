package story

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
	"github.com/thenoetrevino/storyboard/internal/models"
)

// ListCmd returns the story list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories",
		Long: `List the stories of a board, ranked by MoSCoW and MVP score and
grouped by status.

Examples:
  storyboard story list --board=1
  storyboard story list --board=1 --tag=frontend --moscow=must
  storyboard story list --board=1 --status=ready --sort=value --json
  storyboard story list --board=1 -q "offline"
`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().Int("board", 0, "Board ID (uses STORYBOARD_BOARD env var if not specified)")
	cmd.Flags().StringSlice("tag", nil, "Only stories with any of these tags")
	cmd.Flags().String("assignee", "", "Only stories assigned to this member")
	cmd.Flags().String("moscow", "", "Only stories in this MoSCoW bucket: must, should, could, wont")
	cmd.Flags().String("status", "", "Only stories in this status")
	cmd.Flags().StringP("query", "q", "", "Free text search over title and description")
	cmd.Flags().String("sort", "rank", "Sort key: rank, value, points, created, title")

	cli.AddOutputFlags(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.GetBoardID(cmd)
	if err != nil {
		return cli.Usage(formatter, "NO_BOARD", err.Error(),
			"Set board with: eval $(storyboard use board <board-id>)")
	}

	// Flags share the REST API's query grammar
	values := url.Values{}
	tags, _ := cmd.Flags().GetStringSlice("tag")
	values["tag"] = tags
	for _, name := range []string{"assignee", "moscow", "status", "sort"} {
		v, _ := cmd.Flags().GetString(name)
		values.Set(name, v)
	}
	text, _ := cmd.Flags().GetString("query")
	values.Set("q", text)

	q, err := api.ParseQuery(values)
	if err != nil {
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

	stories, err := cliInstance.App.StoryService.ListStories(ctx, boardID, q)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if formatter.Quiet {
		cli.PrintIDs(stories)
		return nil
	}
	if formatter.JSON {
		return formatter.Success(stories)
	}

	if len(stories) == 0 {
		fmt.Println("No stories found")
		return nil
	}

	// Group by status, keeping the requested order inside each lane
	byStatus := make(map[models.Status][]*models.Story)
	for _, s := range stories {
		byStatus[s.Status] = append(byStatus[s.Status], s)
	}
	fmt.Printf("Found %d stories:\n", len(stories))
	for _, status := range models.Statuses() {
		lane := byStatus[status]
		if len(lane) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", styles.SectionStyle.Render(fmt.Sprintf("%s (%d)", status.Title(), len(lane))))
		for _, s := range lane {
			fmt.Printf("  %s\n", summary(s))
		}
	}
	return nil
}
