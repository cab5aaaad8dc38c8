package board

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/cli"
)

// MemberCmd returns the board member parent command
func MemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the team of a board",
		Long: `Manage the members that can be assigned to stories.

The board is taken from --board or from STORYBOARD_BOARD
(see 'storyboard use board').`,
	}

	// Shared by every member subcommand
	cmd.PersistentFlags().Int("board", 0, "Board ID (uses STORYBOARD_BOARD env var if not specified)")

	cmd.AddCommand(memberAddCmd())
	cmd.AddCommand(memberListCmd())
	cmd.AddCommand(memberRemoveCmd())

	return cmd
}

func memberAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member to the board",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemberAdd,
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func memberListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the members of the board",
		Args:  cobra.NoArgs,
		RunE:  runMemberList,
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func memberRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <member-id>",
		Short: "Remove a member and unassign them from every story",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemberRemove,
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
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

	member, err := cliInstance.App.BoardService.AddMember(ctx, boardID, args[0])
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if !formatter.Human() {
		return formatter.Success(member)
	}
	fmt.Printf("✓ Added %s to board %d (member ID: %d)\n", member.Name, boardID, member.ID)
	return nil
}

func runMemberList(cmd *cobra.Command, args []string) error {
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

	members, err := cliInstance.App.BoardService.ListMembers(ctx, boardID)
	if err != nil {
		return cli.Fail(formatter, err)
	}

	if formatter.Quiet {
		cli.PrintIDs(members)
		return nil
	}
	if formatter.JSON {
		return formatter.Success(members)
	}

	if len(members) == 0 {
		fmt.Println("No members found")
		return nil
	}
	for _, m := range members {
		fmt.Printf("  [%d] %s\n", m.ID, m.Name)
	}
	return nil
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.GetBoardID(cmd)
	if err != nil {
		return cli.Usage(formatter, "NO_BOARD", err.Error(),
			"Set board with: eval $(storyboard use board <board-id>)")
	}
	memberID, err := strconv.Atoi(args[0])
	if err != nil || memberID <= 0 {
		return cli.Usage(formatter, "INVALID_MEMBER_ID",
			fmt.Sprintf("invalid member ID %q", args[0]),
			"Use 'storyboard board member list' to see member IDs")
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

	if err := cliInstance.App.BoardService.RemoveMember(ctx, boardID, memberID); err != nil {
		return cli.Fail(formatter, err)
	}

	switch {
	case formatter.Quiet:
		return nil
	case formatter.JSON:
		return formatter.Success(map[string]any{"board_id": boardID, "member_id": memberID})
	}
	fmt.Printf("✓ Member %d removed from board %d\n", memberID, boardID)
	return nil
}
