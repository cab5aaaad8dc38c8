// Package story holds the cli commands that create, refine and move stories
package story

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/user"
)

// StoryCmd returns the story parent command
func StoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Manage stories",
	}

	cmd.AddCommand(CreateCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(UpdateCmd())
	cmd.AddCommand(MoveCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(CommentCmd())
	cmd.AddCommand(DependCmd())
	cmd.AddCommand(FieldsCmd())

	return cmd
}

func addAuthorFlag(cmd *cobra.Command) {
	cmd.Flags().String("author", "", "Activity author (defaults to STORYBOARD_AUTHOR, config, then current user)")
}

func author(cmd *cobra.Command, c *cli.CLI) string {
	explicit, _ := cmd.Flags().GetString("author")
	return user.Author(explicit, c.Config.Client.Author)
}

// summary renders the one-line form of a story used by list, move and update
func summary(s *models.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s  %s", s.ID, styles.TitleStyle.Render(s.Title), styles.RenderMoSCoW(s.MoSCoW))
	if score := ranking.MVPScore(s); score > 0 {
		fmt.Fprintf(&b, "  %s", styles.SubtitleStyle.Render(fmt.Sprintf("MVP %.2f", score)))
	}
	if len(s.Tags) > 0 {
		b.WriteString("  " + styles.RenderTags(s.Tags))
	}
	if len(s.Assignees) > 0 {
		b.WriteString("  " + styles.SubtitleStyle.Render("@"+strings.Join(s.Assignees, " @")))
	}
	return b.String()
}
