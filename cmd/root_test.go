package cmd

import (
	"context"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/client"
	"github.com/thenoetrevino/storyboard/internal/testutil"
)

func boardFlagCmd(t *testing.T, board int) *cobra.Command {
	t.Helper()
	c := &cobra.Command{}
	c.Flags().Int("board", 0, "")
	if board > 0 {
		require.NoError(t, c.Flags().Set("board", strconv.Itoa(board)))
	}
	c.SetContext(context.Background())
	return c
}

func TestResolveBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	local := client.NewLocal(app.New(db), nil)
	t.Setenv(cli.EnvBoard, "")

	t.Run("empty database", func(t *testing.T) {
		_, err := resolveBoard(boardFlagCmd(t, 0), local)
		assert.ErrorIs(t, err, ErrNoBoards)
	})

	first := testutil.CreateTestBoard(t, db, "First")
	second := testutil.CreateTestBoard(t, db, "Second")

	t.Run("first board by default", func(t *testing.T) {
		id, err := resolveBoard(boardFlagCmd(t, 0), local)
		require.NoError(t, err)
		assert.Equal(t, first, id)
	})

	t.Run("flag", func(t *testing.T) {
		id, err := resolveBoard(boardFlagCmd(t, second), local)
		require.NoError(t, err)
		assert.Equal(t, second, id)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(cli.EnvBoard, strconv.Itoa(second))
		id, err := resolveBoard(boardFlagCmd(t, 0), local)
		require.NoError(t, err)
		assert.Equal(t, second, id)
	})

	t.Run("unknown board", func(t *testing.T) {
		_, err := resolveBoard(boardFlagCmd(t, 999), local)
		assert.ErrorContains(t, err, "cannot open board 999")
	})
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"board", "story", "export", "tags", "use"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("remote"))
}
