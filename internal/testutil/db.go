package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/models"
)

// CaptureOutput captures stdout during function execution
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	// Save original stdout
	oldStdout := os.Stdout

	// Create pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	// Replace stdout with pipe writer
	os.Stdout = w

	// Channel to collect output
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	// Close writer and restore stdout
	_ = w.Close()
	os.Stdout = oldStdout

	return <-outC
}

// SetupTestDB creates a migrated in-memory database that is closed when the test ends
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.InitDB(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestBoard inserts a board with the given members and returns its ID
func CreateTestBoard(t *testing.T, db *sql.DB, name string, members ...string) int {
	t.Helper()
	ctx := context.Background()
	result, err := db.ExecContext(ctx, "INSERT INTO boards (name, description) VALUES (?, ?)", name, "Test description")
	if err != nil {
		t.Fatalf("Failed to create test board: %v", err)
	}
	boardID, _ := result.LastInsertId()

	for _, m := range members {
		if _, err := db.ExecContext(ctx, "INSERT INTO members (board_id, name) VALUES (?, ?)", boardID, m); err != nil {
			t.Fatalf("Failed to create test member %s: %v", m, err)
		}
	}
	return int(boardID)
}

// CreateTestStory inserts a bare story in the given status and returns its ID
func CreateTestStory(t *testing.T, db *sql.DB, boardID int, title string, status models.Status) int {
	t.Helper()
	result, err := db.ExecContext(context.Background(),
		"INSERT INTO stories (board_id, title, status) VALUES (?, ?, ?)",
		boardID, title, string(status))
	if err != nil {
		t.Fatalf("Failed to create test story: %v", err)
	}
	storyID, _ := result.LastInsertId()
	return int(storyID)
}

// ReadyStory inserts a story that satisfies every gate up to and including
// ready: validated, agreed, estimated, prioritised and valued.
func ReadyStory(t *testing.T, db *sql.DB, boardID int, title string) int {
	t.Helper()
	ctx := context.Background()
	result, err := db.ExecContext(ctx,
		`INSERT INTO stories (board_id, title, status, business_value, story_points, moscow, problem_validated, criteria_agreed)
		 VALUES (?, ?, 'ready', 50, 5, 'must', 1, 1)`,
		boardID, title)
	if err != nil {
		t.Fatalf("Failed to create ready story: %v", err)
	}
	storyID, _ := result.LastInsertId()
	if _, err := db.ExecContext(ctx,
		"INSERT INTO acceptance_criteria (story_id, position, text) VALUES (?, 0, 'it works')", storyID); err != nil {
		t.Fatalf("Failed to add acceptance criterion: %v", err)
	}
	return int(storyID)
}
