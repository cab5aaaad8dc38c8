package database

import (
	"context"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// BoardRepository defines board persistence operations
type BoardRepository interface {
	CreateBoard(ctx context.Context, name, description string) (*models.Board, error)
	GetBoardByID(ctx context.Context, id int) (*models.Board, error)
	GetAllBoards(ctx context.Context) ([]*models.Board, error)
	UpdateBoard(ctx context.Context, id int, name, description string) error
	DeleteBoard(ctx context.Context, id int) error
}

// MemberRepository defines board member operations
type MemberRepository interface {
	AddMember(ctx context.Context, boardID int, name string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id int) (*models.Member, error)
	GetMembersByBoard(ctx context.Context, boardID int) ([]*models.Member, error)
	RemoveMember(ctx context.Context, id int) error
}

// TagRepository exposes the seeded tag vocabulary
type TagRepository interface {
	GetTags(ctx context.Context) ([]*models.Tag, error)
}

// StoryRepository defines story persistence operations
type StoryRepository interface {
	CreateStory(ctx context.Context, s *models.Story) (*models.Story, error)
	GetStoryByID(ctx context.Context, id int) (*models.Story, error)
	GetStoriesByBoard(ctx context.Context, boardID int) ([]*models.Story, error)
	UpdateStory(ctx context.Context, s *models.Story) error
	UpdateStoryStatus(ctx context.Context, id int, status models.Status, checklist models.Checklist) error
	DeleteStory(ctx context.Context, id int) error
	AddDependency(ctx context.Context, storyID, dependsOnID int) error
	RemoveDependency(ctx context.Context, storyID, dependsOnID int) error
	GetDependencyGraph(ctx context.Context, boardID int) (map[int][]int, error)
}

// ActivityRepository defines the story activity log operations
type ActivityRepository interface {
	AddActivity(ctx context.Context, storyID int, kind models.ActivityKind, author, message string) (*models.Activity, error)
	GetActivity(ctx context.Context, storyID int) ([]*models.Activity, error)
}
