package use

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
)

// BoardCmd returns the use board subcommand
func BoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board [board-id]",
		Short: "Set board context for current shell session",
		Long: `Set the current board context using environment variables.
This command outputs shell commands that should be evaluated:

  eval $(storyboard use board 3)          # Use board 3
  eval $(storyboard use board --clear)    # Clear board context
  storyboard use board --show             # Show current board

The STORYBOARD_BOARD environment variable will be set in your current shell
session only. The --board flag on other commands takes precedence over
this environment variable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUseBoard,
	}

	cmd.Flags().Bool("clear", false, "Clear the current board context")
	cmd.Flags().Bool("show", false, "Show the current board context")

	return cmd
}

func runUseBoard(cmd *cobra.Command, args []string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	showFlag, _ := cmd.Flags().GetBool("show")
	formatter := &cli.OutputFormatter{}

	if showFlag {
		return showCurrentBoard(cmd)
	}

	if clearFlag {
		fmt.Printf("unset %s\n", cli.EnvBoard)
		fmt.Fprintf(os.Stderr, "Cleared board context\n")
		return nil
	}

	if len(args) == 0 {
		return cli.Usage(formatter, "NO_BOARD", "board ID required",
			"Usage: eval $(storyboard use board <board-id>)")
	}
	boardID, err := strconv.Atoi(args[0])
	if err != nil || boardID <= 0 {
		return cli.Usage(formatter, "INVALID_BOARD_ID",
			fmt.Sprintf("invalid board ID: %s", args[0]), "")
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

	board, err := cliInstance.App.BoardService.GetBoard(cmd.Context(), boardID)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	// stdout is for eval, everything else goes to stderr
	fmt.Printf("export %s=%d\n", cli.EnvBoard, boardID)
	fmt.Fprintf(os.Stderr, "Now using board %d: %s\n", boardID, board.Name)
	return nil
}

func showCurrentBoard(cmd *cobra.Command) error {
	current := os.Getenv(cli.EnvBoard)
	if current == "" {
		fmt.Println("No board context set")
		fmt.Println("Use 'eval $(storyboard use board <board-id>)' to set one")
		return nil
	}

	boardID, err := strconv.Atoi(current)
	if err != nil {
		fmt.Printf("Invalid board context: %s\n", current)
		return nil
	}

	cliInstance, err := cli.Open(cmd, &cli.OutputFormatter{})
	if err != nil {
		return err
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("Error closing CLI", "error", err)
		}
	}()

	board, err := cliInstance.App.BoardService.GetBoard(cmd.Context(), boardID)
	if err != nil {
		fmt.Printf("Current board: %s (board not found)\n", current)
		return nil
	}

	fmt.Printf("Current board: %d (%s)\n", boardID, board.Name)
	return nil
}
