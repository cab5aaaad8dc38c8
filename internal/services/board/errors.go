package board

import "errors"

// Domain errors for board service
var (
	// Validation errors
	ErrEmptyName         = errors.New("board name cannot be empty")
	ErrNameTooLong       = errors.New("board name cannot exceed 100 characters")
	ErrInvalidBoardID    = errors.New("invalid board ID")
	ErrEmptyMemberName   = errors.New("member name cannot be empty")
	ErrMemberNameTooLong = errors.New("member name cannot exceed 50 characters")
	ErrInvalidMemberID   = errors.New("invalid member ID")

	// Business logic errors
	ErrBoardNotFound   = errors.New("board not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrDuplicateMember = errors.New("member already exists on this board")
)
