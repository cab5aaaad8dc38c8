package board

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	boardservice "github.com/thenoetrevino/storyboard/internal/services/board"
)

// UpdateCmd returns the board update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Rename a board or change its description",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUpdate,
	}

	cmd.Flags().Int("id", 0, "Board ID (can also be provided as positional argument)")
	cmd.Flags().String("name", "", "New board name")
	cmd.Flags().String("description", "", "New description (use - for stdin)")

	cli.AddOutputFlags(cmd)

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.ParseID(cmd, args)
	if err != nil {
		return cli.Usage(formatter, "INVALID_BOARD_ID", err.Error(),
			"Usage: storyboard board update <id> --name=<name>")
	}

	req := boardservice.UpdateBoardRequest{ID: boardID}
	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		req.Name = &name
	}
	if cmd.Flags().Changed("description") {
		description, _ := cmd.Flags().GetString("description")
		if description, err = cli.ReadText(description); err != nil {
			return cli.Fail(formatter, err)
		}
		req.Description = &description
	}
	if req.Name == nil && req.Description == nil {
		return cli.Usage(formatter, "NO_UPDATES", "nothing to update",
			"Pass --name and/or --description")
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

	board, err := cliInstance.App.BoardService.UpdateBoard(ctx, req)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(board)
	}
	fmt.Printf("✓ Board %d updated: %s\n", board.ID, board.Name)
	return nil
}
