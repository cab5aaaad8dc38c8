package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// MemberRepo handles team members of a board.
type MemberRepo struct {
	db *sql.DB
}

// AddMember adds a named member to a board
func (r *MemberRepo) AddMember(ctx context.Context, boardID int, name string) (*models.Member, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO members (board_id, name) VALUES (?, ?)`,
		boardID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member '%s' to board %d: %w", name, boardID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ID after insert: %w", err)
	}

	return &models.Member{ID: int(id), BoardID: boardID, Name: name}, nil
}

// GetMemberByID retrieves a member by its ID
func (r *MemberRepo) GetMemberByID(ctx context.Context, id int) (*models.Member, error) {
	m := &models.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, board_id, name FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.BoardID, &m.Name)
	if err != nil {
		return nil, notFound(err, "member", id)
	}
	return m, nil
}

// GetMembersByBoard lists a board's members by name
func (r *MemberRepo) GetMembersByBoard(ctx context.Context, boardID int) ([]*models.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, board_id, name FROM members WHERE board_id = ? ORDER BY name`, boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for board %d: %w", boardID, err)
	}
	defer closeRows(rows)

	members := make([]*models.Member, 0)
	for rows.Next() {
		m := &models.Member{}
		if err := rows.Scan(&m.ID, &m.BoardID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

// RemoveMember deletes a member; their story assignments cascade away
func (r *MemberRepo) RemoveMember(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove member %d: %w", id, err)
	}
	return requireAffected(res, "member", id)
}
