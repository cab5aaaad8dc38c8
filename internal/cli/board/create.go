package board

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	boardservice "github.com/thenoetrevino/storyboard/internal/services/board"
)

// CreateCmd returns the board create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new board",
		Long: `Create a new board, optionally seeding its team.

Examples:
  # Simple board (human-readable output)
  storyboard board create --name="Mobile App Q3"

  # Quiet mode for bash capture
  BOARD_ID=$(storyboard board create --name="Mobile App Q3" --quiet)

  # With description and team
  storyboard board create \
    --name="Mobile App Q3" \
    --description="Ideas for the Q3 release" \
    --member=Ana --member=Bo
`,
		RunE: runCreate,
	}

	// Required flags
	cmd.Flags().String("name", "", "Board name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		slog.Error("Error marking flag as required", "error", err)
	}

	// Optional flags
	cmd.Flags().String("description", "", "Board description (use - for stdin)")
	cmd.Flags().StringSlice("member", nil, "Team member name (repeatable or comma-separated)")

	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	members, _ := cmd.Flags().GetStringSlice("member")

	description, err := cli.ReadText(description)
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

	board, err := cliInstance.App.BoardService.CreateBoard(ctx, boardservice.CreateBoardRequest{
		Name:        name,
		Description: description,
		Members:     cli.SplitList(members),
	})
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(board)
	}

	fmt.Printf("✓ Board '%s' created successfully (ID: %d)\n", board.Name, board.ID)
	if board.Description != "" {
		fmt.Printf("  Description: %s\n", board.Description)
	}
	return nil
}
