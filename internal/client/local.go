package client

import (
	"context"

	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Local serves the Controller straight from the app services
type Local struct {
	app *app.App
	bus *events.Bus
}

var (
	_ API     = (*Local)(nil)
	_ Watcher = (*Local)(nil)
)

// NewLocal wraps an App. bus may be nil, in which case Watch is unsupported.
func NewLocal(a *app.App, bus *events.Bus) *Local {
	return &Local{app: a, bus: bus}
}

func (l *Local) GetBoard(ctx context.Context, boardID int) (*models.Board, error) {
	return l.app.BoardService.GetBoard(ctx, boardID)
}

// FirstBoard returns the ID of the oldest board, or 0 when there are none
func (l *Local) FirstBoard(ctx context.Context) (int, error) {
	boards, err := l.app.BoardService.ListBoards(ctx)
	if err != nil {
		return 0, err
	}
	if len(boards) == 0 {
		return 0, nil
	}
	first := boards[0]
	for _, b := range boards[1:] {
		if b.ID < first.ID {
			first = b
		}
	}
	return first.ID, nil
}

func (l *Local) ListMembers(ctx context.Context, boardID int) ([]*models.Member, error) {
	return l.app.BoardService.ListMembers(ctx, boardID)
}

func (l *Local) ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error) {
	return l.app.StoryService.ListStories(ctx, boardID, q)
}

func (l *Local) GetStory(ctx context.Context, storyID int) (*models.Story, error) {
	return l.app.StoryService.GetStory(ctx, storyID)
}

func (l *Local) FieldAccess(ctx context.Context, storyID int) (map[workflow.Field]workflow.Access, error) {
	return l.app.StoryService.FieldAccess(ctx, storyID)
}

func (l *Local) CreateStory(ctx context.Context, req storyservice.CreateStoryRequest) (*models.Story, error) {
	return l.app.StoryService.CreateStory(ctx, req)
}

func (l *Local) UpdateStory(ctx context.Context, req storyservice.UpdateStoryRequest) (*models.Story, error) {
	return l.app.StoryService.UpdateStory(ctx, req)
}

func (l *Local) MoveStory(ctx context.Context, req storyservice.MoveStoryRequest) (*models.Story, error) {
	return l.app.StoryService.MoveStory(ctx, req)
}

func (l *Local) DeleteStory(ctx context.Context, storyID int) error {
	return l.app.StoryService.DeleteStory(ctx, storyID)
}

func (l *Local) AddComment(ctx context.Context, req storyservice.CommentRequest) (*models.Activity, error) {
	return l.app.StoryService.AddComment(ctx, req)
}

// Watch subscribes to the in-process bus until ctx ends
func (l *Local) Watch(ctx context.Context, boardID int) (<-chan events.Event, error) {
	if l.bus == nil {
		return nil, ErrWatchUnsupported
	}
	ch, cancel := l.bus.Subscribe(boardID)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, nil
}
