package board

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/testutil"
)

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func newTestService(t *testing.T) (Service, *recordingPublisher) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	return NewService(database.NewRepository(db), pub), pub
}

func TestCreateBoard(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBoard(ctx, CreateBoardRequest{
		Name:        "  Roadmap ",
		Description: "ideas",
		Members:     []string{"ana", "bo", "ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", b.Name)
	assert.NotZero(t, b.ID)

	members, err := svc.ListMembers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "ana", members[0].Name)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventBoardChanged, pub.events[0].Type)
	assert.Equal(t, b.ID, pub.events[0].BoardID)
}

func TestCreateBoard_Validation(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBoard(ctx, CreateBoardRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.CreateBoard(ctx, CreateBoardRequest{Name: strings.Repeat("a", 101)})
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = svc.CreateBoard(ctx, CreateBoardRequest{Name: "ok", Members: []string{""}})
	assert.ErrorIs(t, err, ErrEmptyMemberName)

	assert.Empty(t, pub.events)
}

func TestGetBoard_NotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.GetBoard(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBoardNotFound)

	_, err = svc.GetBoard(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidBoardID)
}

func TestUpdateBoard(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, CreateBoardRequest{Name: "A", Description: "keep"})
	require.NoError(t, err)

	name := "B"
	got, err := svc.UpdateBoard(ctx, UpdateBoardRequest{ID: b.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, "keep", got.Description)

	empty := ""
	_, err = svc.UpdateBoard(ctx, UpdateBoardRequest{ID: b.ID, Name: &empty})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestDeleteBoard(t *testing.T) {
	t.Parallel()
	svc, pub := newTestService(t)
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, CreateBoardRequest{Name: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBoard(ctx, b.ID))
	assert.ErrorIs(t, svc.DeleteBoard(ctx, b.ID), ErrBoardNotFound)
	assert.Equal(t, events.EventBoardDeleted, pub.events[len(pub.events)-1].Type)
}

func TestMembers(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, _ := svc.CreateBoard(ctx, CreateBoardRequest{Name: "A"})
	other, _ := svc.CreateBoard(ctx, CreateBoardRequest{Name: "B"})

	m, err := svc.AddMember(ctx, a.ID, " ana ")
	require.NoError(t, err)
	assert.Equal(t, "ana", m.Name)

	_, err = svc.AddMember(ctx, a.ID, "ana")
	assert.True(t, errors.Is(err, ErrDuplicateMember))

	_, err = svc.AddMember(ctx, 999, "bo")
	assert.ErrorIs(t, err, ErrBoardNotFound)

	// member ids are scoped to their board
	assert.ErrorIs(t, svc.RemoveMember(ctx, other.ID, m.ID), ErrMemberNotFound)
	require.NoError(t, svc.RemoveMember(ctx, a.ID, m.ID))
	assert.ErrorIs(t, svc.RemoveMember(ctx, a.ID, m.ID), ErrMemberNotFound)
}

func TestListTags(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	tags, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 8)
	assert.Equal(t, "frontend", tags[0].Name)
	assert.Equal(t, "#3B82F6", tags[0].Color)
}
