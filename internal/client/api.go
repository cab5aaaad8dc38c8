// Package client reconciles a local board view with a story backend.
// The backend is either the REST API (HTTPClient) or the in-process
// services (Local); the Controller does not care which.
package client

import (
	"context"
	"errors"

	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// ErrWatchUnsupported is returned by Controller.Watch when the backend
// cannot push changes
var ErrWatchUnsupported = errors.New("backend does not support watching")

// API is the backend a Controller reconciles against
type API interface {
	GetBoard(ctx context.Context, boardID int) (*models.Board, error)
	ListMembers(ctx context.Context, boardID int) ([]*models.Member, error)

	ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error)
	GetStory(ctx context.Context, storyID int) (*models.Story, error)
	FieldAccess(ctx context.Context, storyID int) (map[workflow.Field]workflow.Access, error)

	CreateStory(ctx context.Context, req storyservice.CreateStoryRequest) (*models.Story, error)
	UpdateStory(ctx context.Context, req storyservice.UpdateStoryRequest) (*models.Story, error)
	MoveStory(ctx context.Context, req storyservice.MoveStoryRequest) (*models.Story, error)
	DeleteStory(ctx context.Context, storyID int) error
	AddComment(ctx context.Context, req storyservice.CommentRequest) (*models.Activity, error)
}

// Watcher is implemented by backends that push board events. The returned
// channel is closed when ctx ends or the stream breaks.
type Watcher interface {
	Watch(ctx context.Context, boardID int) (<-chan events.Event, error)
}
