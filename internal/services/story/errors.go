package story

import "errors"

// Story-related errors
var (
	// Validation errors
	ErrEmptyTitle            = errors.New("story title cannot be empty")
	ErrTitleTooLong          = errors.New("story title cannot exceed 255 characters")
	ErrInvalidStoryID        = errors.New("invalid story ID")
	ErrInvalidBoardID        = errors.New("invalid board ID")
	ErrInvalidBusinessValue  = errors.New("business value must be between 1 and 100")
	ErrInvalidStoryPoints    = errors.New("story points must be one of 0, 1, 2, 3, 5, 8, 13, 21")
	ErrTooManyCriteria       = errors.New("a story cannot have more than 5 acceptance criteria")
	ErrEmptyCriterion        = errors.New("acceptance criterion cannot be empty")
	ErrUnknownAssignee       = errors.New("assignee is not a member of the board")
	ErrEmptyCommentMessage   = errors.New("comment message cannot be empty")
	ErrCommentMessageTooLong = errors.New("comment message cannot exceed 1000 characters")

	// Business logic errors
	ErrStoryNotFound        = errors.New("story not found")
	ErrBoardNotFound        = errors.New("board not found")
	ErrSelfDependency       = errors.New("a story cannot depend on itself")
	ErrCrossBoardDependency = errors.New("dependencies must be on the same board")
	ErrCircularDependency   = errors.New("circular dependency detected")
	ErrDuplicateDependency  = errors.New("dependency already exists")
	ErrDependencyNotFound   = errors.New("dependency not found")
)
