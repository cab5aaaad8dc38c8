package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS boards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE,
		UNIQUE(board_id, name)
	);

	-- Tag vocabulary lookup table, seeded below
	CREATE TABLE IF NOT EXISTS tags (
		name TEXT PRIMARY KEY,
		color TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		title TEXT NOT NULL CHECK(length(title) <= 255),
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'idea'
			CHECK(status IN ('idea', 'refinement', 'ready', 'in_progress', 'review', 'done')),
		business_value INTEGER CHECK(business_value BETWEEN 1 AND 100),
		story_points INTEGER CHECK(story_points IN (0, 1, 2, 3, 5, 8, 13, 21)),
		moscow TEXT NOT NULL DEFAULT ''
			CHECK(moscow IN ('', 'must', 'should', 'could', 'wont')),
		problem_validated BOOLEAN NOT NULL DEFAULT 0,
		criteria_agreed BOOLEAN NOT NULL DEFAULT 0,
		dev_complete BOOLEAN NOT NULL DEFAULT 0,
		qa_passed BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS story_assignees (
		story_id INTEGER NOT NULL,
		member_id INTEGER NOT NULL,
		PRIMARY KEY (story_id, member_id),
		FOREIGN KEY (story_id) REFERENCES stories(id) ON DELETE CASCADE,
		FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS story_tags (
		story_id INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (story_id, tag),
		FOREIGN KEY (story_id) REFERENCES stories(id) ON DELETE CASCADE,
		FOREIGN KEY (tag) REFERENCES tags(name)
	);

	CREATE TABLE IF NOT EXISTS acceptance_criteria (
		story_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (story_id, position),
		FOREIGN KEY (story_id) REFERENCES stories(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS story_dependencies (
		story_id INTEGER NOT NULL,
		depends_on_id INTEGER NOT NULL CHECK(depends_on_id != story_id),
		PRIMARY KEY (story_id, depends_on_id),
		FOREIGN KEY (story_id) REFERENCES stories(id) ON DELETE CASCADE,
		FOREIGN KEY (depends_on_id) REFERENCES stories(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		story_id INTEGER NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('comment', 'status', 'edit')),
		author TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (story_id) REFERENCES stories(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_members_board ON members(board_id);
	CREATE INDEX IF NOT EXISTS idx_stories_board ON stories(board_id, status);
	CREATE INDEX IF NOT EXISTS idx_story_assignees_member ON story_assignees(member_id);
	CREATE INDEX IF NOT EXISTS idx_story_tags_tag ON story_tags(tag);
	CREATE INDEX IF NOT EXISTS idx_story_dependencies_target ON story_dependencies(depends_on_id);
	CREATE INDEX IF NOT EXISTS idx_activity_story ON activity(story_id, created_at);
`

// Migrate creates the schema and seeds the tag vocabulary. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return seedTags(ctx, db)
}

func seedTags(ctx context.Context, db *sql.DB) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		for i, tag := range models.TagVocabulary {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tags (name, color, position) VALUES (?, ?, ?)
				 ON CONFLICT(name) DO UPDATE SET color = excluded.color, position = excluded.position`,
				tag.Name, tag.Color, i,
			)
			if err != nil {
				return fmt.Errorf("failed to seed tag %q: %w", tag.Name, err)
			}
		}
		return nil
	})
}
