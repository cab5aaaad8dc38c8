package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// ActivityRepo handles the per-story comment and activity log.
type ActivityRepo struct {
	db *sql.DB
}

// AddActivity appends an entry to a story's log
func (r *ActivityRepo) AddActivity(ctx context.Context, storyID int, kind models.ActivityKind, author, message string) (*models.Activity, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO activity (story_id, kind, author, message) VALUES (?, ?, ?, ?)`,
		storyID, string(kind), author, message,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s activity to story %d: %w", kind, storyID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity ID after insert: %w", err)
	}

	a := &models.Activity{}
	var k string
	err = r.db.QueryRowContext(ctx,
		`SELECT id, story_id, kind, author, message, created_at FROM activity WHERE id = ?`, id,
	).Scan(&a.ID, &a.StoryID, &k, &a.Author, &a.Message, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err, "activity", int(id))
	}
	a.Kind = models.ActivityKind(k)
	return a, nil
}

// GetActivity lists a story's log, oldest first
func (r *ActivityRepo) GetActivity(ctx context.Context, storyID int) ([]*models.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, story_id, kind, author, message, created_at
		 FROM activity WHERE story_id = ? ORDER BY created_at, id`,
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity for story %d: %w", storyID, err)
	}
	defer closeRows(rows)

	entries := make([]*models.Activity, 0)
	for rows.Next() {
		a := &models.Activity{}
		var kind string
		if err := rows.Scan(&a.ID, &a.StoryID, &kind, &a.Author, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		a.Kind = models.ActivityKind(kind)
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
