package story

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Detail is the JSON form of story show
type Detail struct {
	*models.Story
	MVPScore float64                           `json:"mvp_score"`
	Fields   map[workflow.Field]workflow.Access `json:"fields"`
}

// ShowCmd returns the story show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show story details",
		Long: `Display a story with the fields visible in its current status,
its checklist and its activity log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShow,
	}

	cmd.Flags().Int("id", 0, "Story ID (can also be provided as positional argument)")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	storyID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_STORY_ID", err.Error(),
			"Usage: storyboard story show <id> or storyboard story show --id=<id>")
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

	if !formatter.Human() {
		return formatter.Success(&Detail{
			Story:    story,
			MVPScore: ranking.MVPScore(story),
			Fields:   workflow.FieldAccess(story.Status),
		})
	}

	md := Markdown(story)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

// Markdown renders a story as markdown, leaving out every field that is
// hidden in the story's status.
func Markdown(s *models.Story) string {
	visible := func(f workflow.Field) bool {
		return workflow.AccessFor(s.Status, f).Visible()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# #%d %s\n\n", s.ID, s.Title)
	fmt.Fprintf(&b, "**Status:** %s\n\n", s.Status.Title())

	if visible(workflow.FieldMoSCoW) {
		fmt.Fprintf(&b, "**MoSCoW:** %s\n\n", s.MoSCoW.Label())
	}
	if visible(workflow.FieldBusinessValue) {
		fmt.Fprintf(&b, "**Business value:** %s\n\n", optional(s.BusinessValue))
	}
	if visible(workflow.FieldStoryPoints) {
		fmt.Fprintf(&b, "**Story points:** %s\n\n", optional(s.StoryPoints))
		if score := ranking.MVPScore(s); score > 0 {
			fmt.Fprintf(&b, "**MVP score:** %.2f\n\n", score)
		}
	}
	if visible(workflow.FieldTags) && len(s.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(s.Tags, ", "))
	}
	if visible(workflow.FieldAssignees) {
		assignees := "unassigned"
		if len(s.Assignees) > 0 {
			assignees = strings.Join(s.Assignees, ", ")
		}
		fmt.Fprintf(&b, "**Assignees:** %s\n\n", assignees)
	}
	if visible(workflow.FieldDependencies) {
		if len(s.DependsOn) > 0 {
			fmt.Fprintf(&b, "**Depends on:** %s\n\n", joinIDs(s.DependsOn))
		}
		if len(s.Blocks) > 0 {
			fmt.Fprintf(&b, "**Blocks:** %s\n\n", joinIDs(s.Blocks))
		}
	}

	if visible(workflow.FieldDescription) && s.Description != "" {
		b.WriteString("## Description\n\n")
		b.WriteString(s.Description)
		b.WriteString("\n\n")
	}

	if visible(workflow.FieldAcceptanceCriteria) && len(s.AcceptanceCriteria) > 0 {
		b.WriteString("## Acceptance Criteria\n\n")
		for _, c := range s.AcceptanceCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	checklist := []struct {
		field workflow.Field
		label string
		done  bool
	}{
		{workflow.FieldProblemValidated, "Problem validated", s.Checklist.ProblemValidated},
		{workflow.FieldCriteriaAgreed, "Criteria agreed", s.Checklist.CriteriaAgreed},
		{workflow.FieldDevComplete, "Development complete", s.Checklist.DevComplete},
		{workflow.FieldQAPassed, "QA passed", s.Checklist.QAPassed},
	}
	var items []string
	for _, c := range checklist {
		if !visible(c.field) {
			continue
		}
		mark := " "
		if c.done {
			mark = "x"
		}
		items = append(items, fmt.Sprintf("- [%s] %s", mark, c.label))
	}
	if len(items) > 0 {
		b.WriteString("## Checklist\n\n")
		b.WriteString(strings.Join(items, "\n"))
		b.WriteString("\n\n")
	}

	if len(s.Activity) > 0 {
		b.WriteString("## Activity\n\n")
		for _, a := range s.Activity {
			who := a.Author
			if who == "" {
				who = "someone"
			}
			fmt.Fprintf(&b, "- %s **%s** %s\n", a.CreatedAt.Format("2006-01-02 15:04"), who, a.Message)
		}
	}

	return b.String()
}

func optional(v *int) string {
	if v == nil {
		return "not set"
	}
	return strconv.Itoa(*v)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
