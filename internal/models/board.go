package models

import "time"

// Board is the top-level container for stories and team members
type Board struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetID satisfies the quiet-mode output contract of the CLI formatter
func (b *Board) GetID() int {
	return b.ID
}

// Member is a team member that can be assigned to stories on a board
type Member struct {
	ID      int    `json:"id"`
	BoardID int    `json:"board_id"`
	Name    string `json:"name"`
}

// GetID satisfies the quiet-mode output contract of the CLI formatter
func (m *Member) GetID() int {
	return m.ID
}
