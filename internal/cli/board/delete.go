package board

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
)

// DeleteCmd returns the board delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a board",
		Long:  "Delete a board with all of its stories (requires confirmation unless --force, --json or --quiet).",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDelete,
	}

	cmd.Flags().Int("id", 0, "Board ID (can also be provided as positional argument)")
	cmd.Flags().Bool("force", false, "Skip confirmation")

	cli.AddOutputFlags(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)
	force, _ := cmd.Flags().GetBool("force")

	boardID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_BOARD_ID", err.Error(),
			"Usage: storyboard board delete <id>")
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

	board, err := cliInstance.App.BoardService.GetBoard(ctx, boardID)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	// Ask for confirmation unless force or non-interactive output
	if !force && formatter.Human() {
		fmt.Printf("Delete board #%d: '%s' and all of its stories? (y/N): ", boardID, board.Name)
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			slog.Debug("Error reading user input", "error", err)
		}
		if r := strings.ToLower(response); r != "y" && r != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := cliInstance.App.BoardService.DeleteBoard(ctx, boardID); err != nil {
		return cli.Fail(formatter, err)
	}

	switch {
	case formatter.Quiet:
		return nil
	case formatter.JSON:
		return formatter.Success(map[string]any{"board_id": boardID})
	}
	fmt.Printf("✓ Board %d deleted successfully\n", boardID)
	return nil
}
