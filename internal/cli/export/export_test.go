package export

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storycli "github.com/thenoetrevino/storyboard/internal/cli"
	taiga "github.com/thenoetrevino/storyboard/internal/export"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/testutil/cli"
)

func TestExportTaiga_Stdout(t *testing.T) {
	db, app := cli.SetupCLITest(t)
	boardID := cli.CreateTestBoard(t, db, "Mobile App", "Ana", "Bo")
	cli.ReadyStory(t, db, boardID, "Sync engine")
	cli.CreateTestStory(t, db, boardID, "Widgets", models.StatusIdea)

	output, err := cli.ExecuteCLICommand(t, app, TaigaCmd(), []string{"--board", itoaBoard(boardID)})
	require.NoError(t, err)

	var project taiga.Project
	require.NoError(t, sonic.UnmarshalString(output, &project), output)
	assert.Equal(t, "Mobile App", project.Name)
	assert.Equal(t, "mobile-app", project.Slug)
	assert.Len(t, project.Memberships, 2)
	assert.Equal(t, "ana@storyboard.local", project.Memberships[0].Email)
	assert.Len(t, project.UserStories, 2)
}

func TestExportTaiga_File(t *testing.T) {
	db, app := cli.SetupCLITest(t)
	boardID := cli.CreateTestBoard(t, db, "Mobile", "Ana")
	cli.ReadyStory(t, db, boardID, "Sync engine")

	path := filepath.Join(t.TempDir(), "mobile.json")
	output, err := cli.ExecuteCLICommand(t, app, TaigaCmd(), []string{
		"--board", itoaBoard(boardID), "--out", path, "--email-domain", "example.com", "--json",
	})
	require.NoError(t, err)

	result := cli.ParseJSON[Result](t, output)
	assert.Equal(t, Result{BoardID: boardID, Path: path, Stories: 1, Members: 1}, result.Data)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var project taiga.Project
	require.NoError(t, sonic.Unmarshal(data, &project))
	assert.Equal(t, "ana@example.com", project.Memberships[0].Email)
	assert.Equal(t, "Sync engine", project.UserStories[0].Subject)
}

func TestExportTaiga_Errors(t *testing.T) {
	_, app := cli.SetupCLITest(t)

	_, err := cli.ExecuteCLICommand(t, app, TaigaCmd(), []string{"--board", "999"})
	assert.Equal(t, storycli.ExitNotFound, storycli.ExitCode(err))

	t.Setenv(storycli.EnvBoard, "")
	_, err = cli.ExecuteCLICommand(t, app, TaigaCmd(), nil)
	assert.Equal(t, storycli.ExitUsage, storycli.ExitCode(err))
}

func itoaBoard(id int) string {
	return strconv.Itoa(id)
}
