// Package export holds the commands that write a board out for other tools
package export

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
	taiga "github.com/thenoetrevino/storyboard/internal/export"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a board",
		Long:  "Export a board in a format other tools can import.",
	}

	cmd.AddCommand(TaigaCmd())

	return cmd
}

// TaigaCmd returns the export taiga subcommand
func TaigaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taiga",
		Short: "Export a board as a Taiga project",
		Long: `Write the board, its members and its stories as a Taiga project
import document. Without --out the document is printed to stdout.

Examples:
  storyboard export taiga --board=1 > mobile.json
  storyboard export taiga --board=1 --out=mobile.json
  storyboard export taiga --board=1 --out=mobile.json --owner=ana@example.com --json
`,
		Args: cobra.NoArgs,
		RunE: runTaiga,
	}

	cmd.Flags().Int("board", 0, "Board ID (uses STORYBOARD_BOARD env var if not specified)")
	cmd.Flags().StringP("out", "o", "", "File to write, replaced atomically (default: stdout)")
	cmd.Flags().String("owner", "", "Email of the story owner (default: first member)")
	cmd.Flags().String("email-domain", "", "Domain of generated member emails (default from config)")

	cli.AddOutputFlags(cmd)

	return cmd
}

// Result describes a finished export written to a file
type Result struct {
	BoardID int    `json:"board_id"`
	Path    string `json:"path"`
	Stories int    `json:"stories"`
	Members int    `json:"members"`
}

func (r *Result) GetID() int {
	return r.BoardID
}

func runTaiga(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.GetBoardID(cmd)
	if err != nil {
		return cli.Usage(formatter, "NO_BOARD", err.Error(),
			"Set board with: eval $(storyboard use board <board-id>)")
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

	opts := taiga.Options{EmailDomain: cliInstance.Config.Export.MemberEmailDomain}
	if domain, _ := cmd.Flags().GetString("email-domain"); domain != "" {
		opts.EmailDomain = domain
	}
	opts.Owner, _ = cmd.Flags().GetString("owner")

	project, err := taiga.Snapshot(ctx, cliInstance.App.BoardService, cliInstance.App.StoryService, boardID, opts)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" || out == "-" {
		data, err := taiga.Encode(project)
		if err != nil {
			return cli.Fail(formatter, err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := taiga.WriteFile(out, project); err != nil {
		return cli.Fail(formatter, err)
	}
	slog.Info("board exported", "board_id", boardID, "path", out, "stories", len(project.UserStories))

	result := &Result{
		BoardID: boardID,
		Path:    out,
		Stories: len(project.UserStories),
		Members: len(project.Memberships),
	}
	if !formatter.Human() {
		return formatter.Success(result)
	}
	fmt.Printf("✓ Exported '%s' (%d stories, %d members) to %s\n",
		project.Name, result.Stories, result.Members, out)
	return nil
}
