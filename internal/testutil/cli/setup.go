package cli

import (
	"database/sql"
	"testing"

	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/testutil"
)

// SetupCLITest creates an in-memory DB and returns both the DB and App instance.
// It lives in its own package so service tests importing testutil do not
// pull in the CLI.
func SetupCLITest(t *testing.T) (*sql.DB, *app.App) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	// EventPublisher is nil - event publishing is tested elsewhere
	return db, app.New(db)
}

// CreateTestBoard wraps testutil.CreateTestBoard for CLI tests
func CreateTestBoard(t *testing.T, db *sql.DB, name string, members ...string) int {
	t.Helper()
	return testutil.CreateTestBoard(t, db, name, members...)
}

// CreateTestStory wraps testutil.CreateTestStory for CLI tests
func CreateTestStory(t *testing.T, db *sql.DB, boardID int, title string, status models.Status) int {
	t.Helper()
	return testutil.CreateTestStory(t, db, boardID, title, status)
}

// ReadyStory wraps testutil.ReadyStory for CLI tests
func ReadyStory(t *testing.T, db *sql.DB, boardID int, title string) int {
	t.Helper()
	return testutil.ReadyStory(t, db, boardID, title)
}
