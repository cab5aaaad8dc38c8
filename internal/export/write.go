package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/natefinch/atomic"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
)

// BoardReader is the part of the board service the exporter reads from
type BoardReader interface {
	GetBoard(ctx context.Context, id int) (*models.Board, error)
	ListMembers(ctx context.Context, boardID int) ([]*models.Member, error)
}

// StoryLister is the part of the story service the exporter reads from
type StoryLister interface {
	ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error)
}

// Snapshot loads a board with its members and stories and builds the document
func Snapshot(ctx context.Context, boards BoardReader, stories StoryLister, boardID int, opts Options) (*Project, error) {
	board, err := boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	members, err := boards.ListMembers(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	list, err := stories.ListStories(ctx, boardID, ranking.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	return Build(board, members, list, opts), nil
}

// Encode renders the document as indented JSON
func Encode(p *Project) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile encodes the document and replaces path atomically, so a reader
// never observes a half-written export.
func WriteFile(path string, p *Project) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
