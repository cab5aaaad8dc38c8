package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// TagRepo reads the seeded tag vocabulary.
type TagRepo struct {
	db *sql.DB
}

// GetTags returns the vocabulary in display order
func (r *TagRepo) GetTags(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, color FROM tags ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer closeRows(rows)

	tags := make([]*models.Tag, 0, len(models.TagVocabulary))
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.Name, &tag.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}
	return tags, nil
}
