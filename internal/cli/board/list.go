package board

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
)

// ListCmd returns the board list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all boards",
		RunE:  runList,
	}

	cli.AddOutputFlags(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
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

	boards, err := cliInstance.App.BoardService.ListBoards(ctx)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if formatter.Quiet {
		cli.PrintIDs(boards)
		return nil
	}
	if formatter.JSON {
		return formatter.Success(boards)
	}

	if len(boards) == 0 {
		fmt.Println("No boards found")
		return nil
	}

	fmt.Printf("Found %d boards:\n\n", len(boards))
	for _, b := range boards {
		fmt.Printf("  [%d] %s\n", b.ID, styles.TitleStyle.Render(b.Name))
		if b.Description != "" {
			fmt.Printf("      %s\n", styles.SubtitleStyle.Render(b.Description))
		}
	}
	return nil
}
