package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/thenoetrevino/storyboard/internal/models"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory database and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// seedBoard creates a board with the given member names
func seedBoard(t *testing.T, repo *Repository, name string, members ...string) *models.Board {
	t.Helper()
	ctx := context.Background()
	board, err := repo.CreateBoard(ctx, name, "")
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	for _, m := range members {
		if _, err := repo.AddMember(ctx, board.ID, m); err != nil {
			t.Fatalf("Failed to add member %s: %v", m, err)
		}
	}
	return board
}

func intPtr(v int) *int { return &v }
