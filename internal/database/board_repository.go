package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// BoardRepo handles all board-related database operations.
type BoardRepo struct {
	db *sql.DB
}

// CreateBoard inserts a new board
func (r *BoardRepo) CreateBoard(ctx context.Context, name, description string) (*models.Board, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO boards (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert board '%s': %w", name, err)
	}

	boardID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get board ID after insert: %w", err)
	}

	return r.GetBoardByID(ctx, int(boardID))
}

// GetBoardByID retrieves a board by its ID
func (r *BoardRepo) GetBoardByID(ctx context.Context, id int) (*models.Board, error) {
	board := &models.Board{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM boards WHERE id = ?`,
		id,
	).Scan(&board.ID, &board.Name, &board.Description, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "board", id)
	}
	return board, nil
}

// GetAllBoards retrieves all boards ordered by ID
func (r *BoardRepo) GetAllBoards(ctx context.Context) ([]*models.Board, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM boards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all boards: %w", err)
	}
	defer closeRows(rows)

	boards := make([]*models.Board, 0, 10)
	for rows.Next() {
		board := &models.Board{}
		if err := rows.Scan(&board.ID, &board.Name, &board.Description, &board.CreatedAt, &board.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		boards = append(boards, board)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating board rows: %w", err)
	}
	return boards, nil
}

// UpdateBoard updates a board's name and description
func (r *BoardRepo) UpdateBoard(ctx context.Context, id int, name, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE boards SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update board %d: %w", id, err)
	}
	return requireAffected(res, "board", id)
}

// DeleteBoard removes a board with its members and stories (cascade)
func (r *BoardRepo) DeleteBoard(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board %d: %w", id, err)
	}
	return requireAffected(res, "board", id)
}
