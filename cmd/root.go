// Package cmd wires the storyboard command tree
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/board"
	"github.com/thenoetrevino/storyboard/internal/cli/export"
	"github.com/thenoetrevino/storyboard/internal/cli/story"
	"github.com/thenoetrevino/storyboard/internal/cli/tags"
	"github.com/thenoetrevino/storyboard/internal/cli/use"
	"github.com/thenoetrevino/storyboard/internal/client"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/tui"
	"github.com/thenoetrevino/storyboard/internal/user"
)

// ErrNoBoards is returned when the board view opens on an empty database
var ErrNoBoards = errors.New("no boards yet")

var rootCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "Storyboard - a kanban board for ideas and user stories",
	Long: `Storyboard tracks ideas from first thought to done through a fixed
workflow: Idea, Refinement, Ready, In Progress, Review and Done. Each step
has a gate and each status decides which fields can be edited.

Run without a subcommand to open the interactive board.`,
	Args:          cobra.NoArgs,
	RunE:          runBoardView,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().Int("board", 0, "Board to open (uses STORYBOARD_BOARD env var, else the first board)")
	rootCmd.Flags().String("remote", "", "Base URL of a storyboardd server (default from config or STORYBOARD_API_URL)")

	rootCmd.AddCommand(
		board.BoardCmd(),
		story.StoryCmd(),
		export.ExportCmd(),
		tags.TagsCmd(),
		use.UseCmd(),
	)
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runBoardView(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	author := user.Author("", cfg.Client.Author)

	remote, _ := cmd.Flags().GetString("remote")
	if remote == "" {
		remote = cfg.Client.APIURL
	}

	var (
		backend client.API
		opts    = []tui.Option{tui.WithRequestTimeout(cfg.Client.RequestTimeout)}
	)
	if remote != "" {
		hc := client.NewHTTPClient(remote,
			client.WithTimeout(cfg.Client.RequestTimeout),
			client.WithAuthor(author),
		)
		if err := hc.Health(ctx); err != nil {
			return fmt.Errorf("server %s is unreachable: %w", remote, err)
		}
		backend = hc
		opts = append(opts, tui.WithWatch())
		slog.Info("opening remote board", "url", remote)
	} else {
		cliInstance, err := cli.GetCLIFromContext(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := cliInstance.Close(); err != nil {
				slog.Error("Error closing CLI", "error", err)
			}
		}()
		backend = client.NewLocal(cliInstance.App, nil)
	}

	boardID, err := resolveBoard(cmd, backend)
	if err != nil {
		return err
	}

	ctrl := client.NewController(backend, boardID,
		client.WithDebounce(cfg.Client.SearchDebounce),
		client.WithControllerAuthor(author),
		client.WithRequestTimeout(cfg.Client.RequestTimeout),
		client.WithLogger(slog.Default()),
	)
	defer ctrl.Close()

	return tui.Run(ctx, ctrl, cfg, opts...)
}

// boardLister is implemented by the local backend, which can pick a default board
type boardLister interface {
	FirstBoard(ctx context.Context) (int, error)
}

// resolveBoard picks --board, then STORYBOARD_BOARD, then the first board of
// a local database, and checks that the board exists
func resolveBoard(cmd *cobra.Command, backend client.API) (int, error) {
	ctx := cmd.Context()

	boardID, err := cli.GetBoardID(cmd)
	if err != nil {
		lister, ok := backend.(boardLister)
		if !ok {
			return 0, err
		}
		if boardID, err = lister.FirstBoard(ctx); err != nil {
			return 0, err
		}
		if boardID == 0 {
			return 0, fmt.Errorf("%w: create one with 'storyboard board create --name <name>'", ErrNoBoards)
		}
	}

	if _, err := backend.GetBoard(ctx, boardID); err != nil {
		return 0, fmt.Errorf("cannot open board %d: %w", boardID, err)
	}
	return boardID, nil
}
