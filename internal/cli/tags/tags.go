// Package tags provides the tags command
package tags

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
)

// TagsCmd returns the tags command
func TagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tag vocabulary",
		Long: `List the fixed set of tags a story may carry, with their colors.

Examples:
  storyboard tags
  storyboard tags --json
`,
		Args: cobra.NoArgs,
		RunE: runTags,
	}

	cli.AddOutputFlags(cmd)

	return cmd
}

func runTags(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	cliInstance, err := cli.Open(cmd, formatter)
	if err != nil {
		return err
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("Error closing CLI", "error", err)
		}
	}()

	tags, err := cliInstance.App.BoardService.ListTags(ctx)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if formatter.Quiet {
		for _, t := range tags {
			fmt.Println(t.Name)
		}
		return nil
	}
	if formatter.JSON {
		return formatter.Success(tags)
	}

	for _, t := range tags {
		fmt.Printf("  %s %s\n", styles.RenderTagChip(t.Name), styles.SubtitleStyle.Render(t.Color))
	}
	return nil
}
