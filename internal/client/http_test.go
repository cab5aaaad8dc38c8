package client

import (
	"context"
	"io"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/server"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/testutil"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

func newRemote(t *testing.T) (*HTTPClient, *app.App, int) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	boardID := testutil.CreateTestBoard(t, db, "Roadmap", "Ada")

	bus := events.NewBus(events.DefaultBuffer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := app.New(db, app.WithEventPublisher(bus), app.WithLogger(logger))
	srv := server.New(a, server.Options{Bus: bus, Logger: logger})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
		bus.Close()
	})
	return NewHTTPClient(ts.URL, WithHTTPClient(ts.Client()), WithAuthor("Ada")), a, boardID
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	c, _, boardID := newRemote(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	board, err := c.GetBoard(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", board.Name)

	members, err := c.ListMembers(ctx, boardID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	st, err := c.CreateStory(ctx, storyservice.CreateStoryRequest{BoardID: boardID, Title: "Search", Tags: []string{"backend"}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdea, st.Status)

	list, err := c.ListStories(ctx, boardID, ranking.Query{Tags: []string{"frontend"}})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	list, err = c.ListStories(ctx, boardID, ranking.Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	title := "Search v2"
	updated, err := c.UpdateStory(ctx, storyservice.UpdateStoryRequest{StoryID: st.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Search v2", updated.Title)

	_, err = c.MoveStory(ctx, storyservice.MoveStoryRequest{StoryID: st.ID, Status: models.StatusRefinement})
	var gate *workflow.GateError
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, models.StatusRefinement, gate.To)
	require.NotEmpty(t, gate.Unmet)

	entry, err := c.AddComment(ctx, storyservice.CommentRequest{StoryID: st.ID, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", entry.Author, "author comes from the X-Author header")

	fields, err := c.FieldAccess(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Hidden, fields[workflow.FieldStoryPoints])

	full, err := c.GetStory(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, full.Activity, 3)

	require.NoError(t, c.DeleteStory(ctx, st.ID))
	_, err = c.GetStory(ctx, st.ID)
	assert.ErrorIs(t, err, storyservice.ErrStoryNotFound)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestHTTPClient_LockedFieldError(t *testing.T) {
	c, _, boardID := newRemote(t)
	ctx := context.Background()

	st, err := c.CreateStory(ctx, storyservice.CreateStoryRequest{BoardID: boardID, Title: "Search"})
	require.NoError(t, err)

	points := 3
	_, err = c.UpdateStory(ctx, storyservice.UpdateStoryRequest{StoryID: st.ID, StoryPoints: &points})
	var locked *workflow.LockedFieldError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, workflow.FieldStoryPoints, locked.Field)
	assert.ErrorIs(t, err, workflow.ErrFieldLocked)
}

func TestHTTPClient_Watch(t *testing.T) {
	c, a, boardID := newRemote(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evs, err := c.Watch(ctx, boardID)
	require.NoError(t, err)

	st, err := a.StoryService.CreateStory(context.Background(), storyservice.CreateStoryRequest{BoardID: boardID, Title: "Pushed"})
	require.NoError(t, err)

	select {
	case ev := <-evs:
		assert.Equal(t, events.EventStoryCreated, ev.Type)
		assert.Equal(t, st.ID, ev.StoryID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	for range evs {
	}
}

func TestHTTPClient_WatchParsesDataLines(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, "id: 1\ndata: {\"type\":\"story_created\",\"board_id\":4,\"story_id\":7}\n\n")
		fmt.Fprint(w, "id: 2\ndata:{\"type\":\"story_deleted\",\"board_id\":4,\"story_id\":8}\n\n")
		fmt.Fprint(w, "event: ping\ndata\n\n")
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, WithHTTPClient(ts.Client()))
	evs, err := c.Watch(context.Background(), 4)
	require.NoError(t, err)

	var got []int
	for ev := range evs {
		got = append(got, ev.StoryID)
	}
	assert.Equal(t, []int{7, 8}, got)
}

func TestEventData(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"data: {}", "{}", true},
		{"data:{}", "{}", true},
		{"data:  {}", " {}", true},
		{"id: 3", "", false},
		{": heartbeat", "", false},
	}
	for _, tt := range tests {
		got, ok := eventData(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestHTTPClient_WatchUnknownBoard(t *testing.T) {
	c, _, _ := newRemote(t)
	_, err := c.Watch(context.Background(), 999)
	assert.ErrorIs(t, err, storyservice.ErrBoardNotFound)
}

func TestController_OverHTTP(t *testing.T) {
	remote, _, boardID := newRemote(t)
	c := NewController(remote, boardID, WithDebounce(0))
	defer c.Close()
	ctx := context.Background()

	st, err := c.Create(ctx, storyservice.CreateStoryRequest{Title: "Search", ProblemValidated: true})
	require.NoError(t, err)

	moved, err := c.MoveNext(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefinement, moved.Status)

	require.NoError(t, c.Load(ctx))
	assert.Len(t, c.Store().Column(models.StatusRefinement), 1)
}
