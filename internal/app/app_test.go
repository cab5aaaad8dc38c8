package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/services/board"
	"github.com/thenoetrevino/storyboard/internal/services/story"
)

func TestNew(t *testing.T) {
	db, err := database.InitDB(context.Background(), ":memory:")
	require.NoError(t, err)

	a := New(db)
	require.NotNil(t, a)
	assert.NotNil(t, a.BoardService)
	assert.NotNil(t, a.StoryService)
	assert.NotNil(t, a.Logger())
	assert.NoError(t, a.Ping(context.Background()))

	require.NoError(t, a.Close())
	assert.Error(t, a.Ping(context.Background()))
}

func TestNew_PublishesThroughBus(t *testing.T) {
	db, err := database.InitDB(context.Background(), ":memory:")
	require.NoError(t, err)

	bus := events.NewBus(8)
	defer bus.Close()
	ch, cancel := bus.Subscribe(0)
	defer cancel()

	a := New(db, WithEventPublisher(bus))
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	b, err := a.BoardService.CreateBoard(ctx, board.CreateBoardRequest{Name: "Roadmap"})
	require.NoError(t, err)
	_, err = a.StoryService.CreateStory(ctx, story.CreateStoryRequest{BoardID: b.ID, Title: "First"})
	require.NoError(t, err)

	first := <-ch
	second := <-ch
	assert.Equal(t, events.EventBoardChanged, first.Type)
	assert.Equal(t, events.EventStoryCreated, second.Type)
	assert.Less(t, first.SequenceID, second.SequenceID)
}
