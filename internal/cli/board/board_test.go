package board

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storycli "github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/testutil/cli"
)

func TestCreateBoard_Positive(t *testing.T) {
	db, app := cli.SetupCLITest(t)

	t.Run("quiet prints the new ID", func(t *testing.T) {
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(),
			[]string{"create", "--name", "Mobile App", "--quiet"})
		require.NoError(t, err)

		boardID := strings.TrimSpace(output)
		assert.Regexp(t, `^\d+$`, boardID)

		var name string
		err = db.QueryRowContext(context.Background(),
			"SELECT name FROM boards WHERE id = ?", boardID).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "Mobile App", name)
	})

	t.Run("json with team", func(t *testing.T) {
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{
			"create", "--name", "Platform", "--description", "infra ideas",
			"--member", "Ana,Bo", "--member", "Cy", "--json",
		})
		require.NoError(t, err)

		result := cli.ParseJSON[models.Board](t, output)
		assert.True(t, result.Success)
		assert.Equal(t, "Platform", result.Data.Name)
		assert.Equal(t, "infra ideas", result.Data.Description)

		members, err := app.BoardService.ListMembers(context.Background(), result.Data.ID)
		require.NoError(t, err)
		assert.Len(t, members, 3)
	})

	t.Run("human readable", func(t *testing.T) {
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"create", "--name", "Ops"})
		require.NoError(t, err)
		assert.Contains(t, output, "Board 'Ops' created successfully")
	})
}

func TestCreateBoard_Negative(t *testing.T) {
	_, app := cli.SetupCLITest(t)

	t.Run("missing name flag", func(t *testing.T) {
		_, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"create"})
		assert.Error(t, err)
	})

	t.Run("blank name", func(t *testing.T) {
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"create", "--name", "  ", "--json"})
		assert.Equal(t, storycli.ExitValidation, storycli.ExitCode(err))

		result := cli.ParseJSON[any](t, output)
		assert.False(t, result.Success)
		assert.Equal(t, "INVALID_REQUEST", result.Error.Code)
	})
}

func TestListBoards(t *testing.T) {
	db, app := cli.SetupCLITest(t)

	output, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"list"})
	require.NoError(t, err)
	assert.Contains(t, output, "No boards found")

	first := cli.CreateTestBoard(t, db, "First")
	second := cli.CreateTestBoard(t, db, "Second")

	output, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"list", "--quiet"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{itoa(first), itoa(second)}, strings.Fields(output))

	output, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"list", "--json"})
	require.NoError(t, err)
	result := cli.ParseJSON[[]models.Board](t, output)
	assert.Len(t, result.Data, 2)

	output, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"list"})
	require.NoError(t, err)
	assert.Contains(t, output, "Found 2 boards")
}

func TestUpdateBoard(t *testing.T) {
	db, app := cli.SetupCLITest(t)
	boardID := cli.CreateTestBoard(t, db, "Old")

	output, err := cli.ExecuteCLICommand(t, app, BoardCmd(),
		[]string{"update", itoa(boardID), "--name", "New", "--json"})
	require.NoError(t, err)
	result := cli.ParseJSON[models.Board](t, output)
	assert.Equal(t, "New", result.Data.Name)
	assert.Equal(t, "Test description", result.Data.Description)

	_, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"update", itoa(boardID)})
	assert.Equal(t, storycli.ExitUsage, storycli.ExitCode(err))
}

func TestDeleteBoard(t *testing.T) {
	db, app := cli.SetupCLITest(t)
	boardID := cli.CreateTestBoard(t, db, "Doomed")
	cli.CreateTestStory(t, db, boardID, "goes too", models.StatusIdea)

	_, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"delete", itoa(boardID), "--force"})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM stories WHERE board_id = ?", boardID).Scan(&count))
	assert.Zero(t, count, "stories cascade with the board")

	_, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"delete", itoa(boardID), "--force"})
	assert.Equal(t, storycli.ExitNotFound, storycli.ExitCode(err))

	_, err = cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"delete", "abc"})
	assert.Equal(t, storycli.ExitUsage, storycli.ExitCode(err))
}

func TestMembers(t *testing.T) {
	db, app := cli.SetupCLITest(t)
	boardID := cli.CreateTestBoard(t, db, "Team")

	output, err := cli.ExecuteCLICommand(t, app, BoardCmd(),
		[]string{"member", "add", "Ana", "--board", itoa(boardID), "--quiet"})
	require.NoError(t, err)
	memberID := strings.TrimSpace(output)
	assert.Regexp(t, `^\d+$`, memberID)

	t.Run("duplicate name", func(t *testing.T) {
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(),
			[]string{"member", "add", "Ana", "--board", itoa(boardID), "--json"})
		assert.Equal(t, storycli.ExitDataErr, storycli.ExitCode(err))
		assert.Equal(t, "DUPLICATE_MEMBER", cli.ParseJSON[any](t, output).Error.Code)
	})

	t.Run("board from env", func(t *testing.T) {
		t.Setenv(storycli.EnvBoard, itoa(boardID))
		output, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"member", "list", "--json"})
		require.NoError(t, err)
		result := cli.ParseJSON[[]models.Member](t, output)
		require.Len(t, result.Data, 1)
		assert.Equal(t, "Ana", result.Data[0].Name)
	})

	t.Run("no board", func(t *testing.T) {
		t.Setenv(storycli.EnvBoard, "")
		_, err := cli.ExecuteCLICommand(t, app, BoardCmd(), []string{"member", "list"})
		assert.Equal(t, storycli.ExitUsage, storycli.ExitCode(err))
	})

	t.Run("remove", func(t *testing.T) {
		_, err := cli.ExecuteCLICommand(t, app, BoardCmd(),
			[]string{"member", "remove", memberID, "--board", itoa(boardID)})
		require.NoError(t, err)

		_, err = cli.ExecuteCLICommand(t, app, BoardCmd(),
			[]string{"member", "remove", memberID, "--board", itoa(boardID)})
		assert.Equal(t, storycli.ExitNotFound, storycli.ExitCode(err))
	})
}
