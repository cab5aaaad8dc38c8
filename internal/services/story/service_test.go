package story

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/testutil"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []events.EventType {
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc     Service
	pub     *recordingPublisher
	boardID int
	t       *testing.T
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	return &fixture{
		svc:     NewService(database.NewRepository(db), pub),
		pub:     pub,
		boardID: testutil.CreateTestBoard(t, db, "Board", "ana", "bo"),
		t:       t,
	}
}

func (f *fixture) create(title string) *models.Story {
	f.t.Helper()
	s, err := f.svc.CreateStory(context.Background(), CreateStoryRequest{BoardID: f.boardID, Title: title})
	require.NoError(f.t, err)
	return s
}

func (f *fixture) update(req UpdateStoryRequest) *models.Story {
	f.t.Helper()
	s, err := f.svc.UpdateStory(context.Background(), req)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) move(id int, status models.Status) (*models.Story, error) {
	return f.svc.MoveStory(context.Background(), MoveStoryRequest{StoryID: id, Status: status})
}

func ptr[T any](v T) *T { return &v }

// ============================================================================
// CREATE
// ============================================================================

func TestCreateStory(t *testing.T) {
	t.Parallel()
	f := setup(t)

	s, err := f.svc.CreateStory(context.Background(), CreateStoryRequest{
		BoardID:          f.boardID,
		Title:            "  Dark mode ",
		Description:      "Users want it",
		Tags:             []string{"Design", "frontend", "design"},
		BusinessValue:    ptr(30),
		ProblemValidated: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dark mode", s.Title)
	assert.Equal(t, models.StatusIdea, s.Status)
	assert.Equal(t, []string{"frontend", "design"}, s.Tags)
	assert.Equal(t, 30, *s.BusinessValue)
	assert.True(t, s.Checklist.ProblemValidated)
	assert.Equal(t, []events.EventType{events.EventStoryCreated}, f.pub.types())
	assert.Equal(t, s.ID, f.pub.events[0].StoryID)
}

func TestCreateStory_Validation(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateStoryRequest
		want error
	}{
		{"empty title", CreateStoryRequest{Title: "  "}, ErrEmptyTitle},
		{"long title", CreateStoryRequest{Title: strings.Repeat("x", 256)}, ErrTitleTooLong},
		{"unknown tag", CreateStoryRequest{Title: "t", Tags: []string{"marketing"}}, models.ErrUnknownTag},
		{"business value", CreateStoryRequest{Title: "t", BusinessValue: ptr(0)}, ErrInvalidBusinessValue},
		{"points off scale", CreateStoryRequest{Title: "t", StoryPoints: ptr(4)}, ErrInvalidStoryPoints},
		{"unknown assignee", CreateStoryRequest{Title: "t", Assignees: []string{"zed"}}, ErrUnknownAssignee},
		{"too many criteria", CreateStoryRequest{Title: "t", AcceptanceCriteria: []string{"a", "b", "c", "d", "e", "f"}}, ErrTooManyCriteria},
		{"bad moscow", CreateStoryRequest{Title: "t", MoSCoW: "maybe"}, models.ErrInvalidMoSCoW},
		// estimates are hidden while a story is an idea
		{"points locked", CreateStoryRequest{Title: "t", StoryPoints: ptr(3)}, workflow.ErrFieldLocked},
		{"assignee locked", CreateStoryRequest{Title: "t", Assignees: []string{"ana"}}, workflow.ErrFieldLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.BoardID = f.boardID
			_, err := f.svc.CreateStory(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.CreateStory(ctx, CreateStoryRequest{BoardID: 999, Title: "t"})
	assert.ErrorIs(t, err, ErrBoardNotFound)
	assert.Empty(t, f.pub.events)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestStoryLifecycle(t *testing.T) {
	t.Parallel()
	f := setup(t)
	s := f.create("Export to Taiga")

	_, err := f.move(s.ID, models.StatusRefinement)
	var gateErr *workflow.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Len(t, gateErr.Unmet, 1)

	f.update(UpdateStoryRequest{StoryID: s.ID, ProblemValidated: ptr(true)})
	s, err = f.move(s.ID, models.StatusRefinement)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefinement, s.Status)

	f.update(UpdateStoryRequest{
		StoryID:            s.ID,
		MoSCoW:             ptr(models.MoSCoWShould),
		StoryPoints:        ptr(5),
		BusinessValue:      ptr(60),
		AcceptanceCriteria: &[]string{"json validates", "file is written"},
		CriteriaAgreed:     ptr(true),
	})
	_, err = f.move(s.ID, models.StatusReady)
	require.NoError(t, err)

	_, err = f.move(s.ID, models.StatusInProgress)
	assert.ErrorIs(t, err, workflow.ErrTransitionBlocked, "nobody assigned")

	f.update(UpdateStoryRequest{StoryID: s.ID, Assignees: &[]string{"bo", "ana"}})
	s, err = f.move(s.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "bo"}, s.Assignees)

	f.update(UpdateStoryRequest{StoryID: s.ID, DevComplete: ptr(true)})
	_, err = f.move(s.ID, models.StatusReview)
	require.NoError(t, err)
	f.update(UpdateStoryRequest{StoryID: s.ID, QAPassed: ptr(true)})
	s, err = f.move(s.ID, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, s.Status)

	// going back re-arms the later gates
	s, err = f.move(s.ID, models.StatusRefinement)
	require.NoError(t, err)
	assert.Equal(t, models.Checklist{ProblemValidated: true}, s.Checklist)

	_, err = f.move(s.ID, models.StatusRefinement)
	assert.ErrorIs(t, err, workflow.ErrSameStatus)
	_, err = f.move(s.ID, "blocked")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	activity, err := f.svc.ListActivity(context.Background(), s.ID)
	require.NoError(t, err)
	var moves []string
	for _, a := range activity {
		if a.Kind == models.ActivityStatus {
			moves = append(moves, a.Message)
		}
	}
	require.Len(t, moves, 6)
	assert.Equal(t, "moved from Idea to Refinement", moves[0])
	assert.Equal(t, "moved from Done to Refinement", moves[5])
}

func TestMoveStory_MultiStepChecksEveryGate(t *testing.T) {
	t.Parallel()
	f := setup(t)
	s := f.create("Jump")

	_, err := f.move(s.ID, models.StatusReady)
	var gateErr *workflow.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Len(t, gateErr.Unmet, 6, "one for refinement and five for ready")
}

// ============================================================================
// FIELD LOCKS
// ============================================================================

func TestUpdateStory_FieldLocks(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	svc := NewService(database.NewRepository(db), nil)
	boardID := testutil.CreateTestBoard(t, db, "Board")
	done := testutil.CreateTestStory(t, db, boardID, "Shipped", models.StatusDone)
	ctx := context.Background()

	_, err := svc.UpdateStory(ctx, UpdateStoryRequest{StoryID: done, Title: ptr("Renamed")})
	var locked *workflow.LockedFieldError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, workflow.FieldTitle, locked.Field)
	assert.True(t, errors.Is(err, workflow.ErrFieldLocked))

	// resubmitting the unchanged value is not an edit
	got, err := svc.UpdateStory(ctx, UpdateStoryRequest{StoryID: done, Title: ptr("Shipped")})
	require.NoError(t, err)
	assert.Equal(t, "Shipped", got.Title)

	// comments are always allowed
	_, err = svc.AddComment(ctx, CommentRequest{StoryID: done, Author: "ana", Message: "nice"})
	assert.NoError(t, err)
}

func TestUpdateStory_ClearsEstimates(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	svc := NewService(database.NewRepository(db), nil)
	boardID := testutil.CreateTestBoard(t, db, "Board")
	id := testutil.ReadyStory(t, db, boardID, "Ready")

	got, err := svc.UpdateStory(context.Background(), UpdateStoryRequest{StoryID: id, ClearStoryPoints: true, ClearBusinessValue: true})
	require.NoError(t, err)
	assert.Nil(t, got.StoryPoints)
	assert.Nil(t, got.BusinessValue)

	activity, err := svc.ListActivity(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "updated business value, story points", activity[0].Message)
}

func TestFieldAccess(t *testing.T) {
	t.Parallel()
	f := setup(t)
	s := f.create("Idea")

	access, err := f.svc.FieldAccess(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Editable, access[workflow.FieldTitle])
	assert.Equal(t, workflow.Hidden, access[workflow.FieldStoryPoints])

	_, err = f.svc.FieldAccess(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrStoryNotFound)
}

// ============================================================================
// DEPENDENCIES
// ============================================================================

func TestDependencies(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	svc := NewService(database.NewRepository(db), nil)
	boardID := testutil.CreateTestBoard(t, db, "Board", "ana")
	otherBoard := testutil.CreateTestBoard(t, db, "Other")
	ctx := context.Background()

	a := testutil.ReadyStory(t, db, boardID, "API")
	b := testutil.ReadyStory(t, db, boardID, "Schema")
	c := testutil.ReadyStory(t, db, boardID, "Migrations")
	foreign := testutil.ReadyStory(t, db, otherBoard, "Elsewhere")
	idea := testutil.CreateTestStory(t, db, boardID, "Idea", models.StatusIdea)

	assert.ErrorIs(t, svc.AddDependency(ctx, a, a), ErrSelfDependency)
	assert.ErrorIs(t, svc.AddDependency(ctx, a, foreign), ErrCrossBoardDependency)
	assert.ErrorIs(t, svc.AddDependency(ctx, idea, a), workflow.ErrFieldLocked)
	assert.ErrorIs(t, svc.AddDependency(ctx, a, 999), ErrStoryNotFound)

	require.NoError(t, svc.AddDependency(ctx, a, b))
	require.NoError(t, svc.AddDependency(ctx, b, c))
	assert.ErrorIs(t, svc.AddDependency(ctx, a, b), ErrDuplicateDependency)
	assert.ErrorIs(t, svc.AddDependency(ctx, c, a), ErrCircularDependency)

	require.NoError(t, svc.RemoveDependency(ctx, b, c))
	assert.ErrorIs(t, svc.RemoveDependency(ctx, b, c), ErrDependencyNotFound)
	got, err := svc.GetStory(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, got.Blocks)

	_, err = svc.UpdateStory(ctx, UpdateStoryRequest{StoryID: a, Assignees: &[]string{"ana"}})
	require.NoError(t, err)

	_, err = svc.MoveStory(ctx, MoveStoryRequest{StoryID: a, Status: models.StatusInProgress})
	var gateErr *workflow.GateError
	require.ErrorAs(t, err, &gateErr)
	require.Len(t, gateErr.Unmet, 1)
	assert.Contains(t, gateErr.Unmet[0].Message, "is not done")

	_, err = db.Exec("UPDATE stories SET status = 'done' WHERE id = ?", b)
	require.NoError(t, err)
	_, err = svc.MoveStory(ctx, MoveStoryRequest{StoryID: a, Status: models.StatusInProgress})
	require.NoError(t, err)

	// done stories no longer accept dependency edits
	assert.ErrorIs(t, svc.RemoveDependency(ctx, b, c), ErrDependencyNotFound)
	assert.ErrorIs(t, svc.AddDependency(ctx, b, c), workflow.ErrFieldLocked)
}

// ============================================================================
// COMMENTS, LISTING, DELETE
// ============================================================================

func TestAddComment(t *testing.T) {
	t.Parallel()
	f := setup(t)
	s := f.create("Commented")
	ctx := context.Background()

	_, err := f.svc.AddComment(ctx, CommentRequest{StoryID: s.ID, Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyCommentMessage)
	_, err = f.svc.AddComment(ctx, CommentRequest{StoryID: s.ID, Message: strings.Repeat("a", 1001)})
	assert.ErrorIs(t, err, ErrCommentMessageTooLong)

	c, err := f.svc.AddComment(ctx, CommentRequest{StoryID: s.ID, Author: "bo", Message: "why not"})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityComment, c.Kind)

	got, err := f.svc.GetStory(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Activity, 2)
	assert.Equal(t, "created story", got.Activity[0].Message)
	assert.Equal(t, "why not", got.Activity[1].Message)
}

func TestListStories(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateStory(ctx, CreateStoryRequest{BoardID: f.boardID, Title: "Low", BusinessValue: ptr(5), Tags: []string{"data"}})
	require.NoError(t, err)
	_, err = f.svc.CreateStory(ctx, CreateStoryRequest{BoardID: f.boardID, Title: "High", BusinessValue: ptr(90), Tags: []string{"security"}})
	require.NoError(t, err)

	all, err := f.svc.ListStories(ctx, f.boardID, ranking.Query{Sort: ranking.SortValue})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "High", all[0].Title)

	filtered, err := f.svc.ListStories(ctx, f.boardID, ranking.Query{Tags: []string{"data"}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Low", filtered[0].Title)

	none, err := f.svc.ListStories(ctx, f.boardID, ranking.Query{Text: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.svc.ListStories(ctx, 404, ranking.Query{})
	assert.ErrorIs(t, err, ErrBoardNotFound)
}

func TestDeleteStory(t *testing.T) {
	t.Parallel()
	f := setup(t)
	s := f.create("Doomed")
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteStory(ctx, s.ID))
	assert.ErrorIs(t, f.svc.DeleteStory(ctx, s.ID), ErrStoryNotFound)
	assert.ErrorIs(t, f.svc.DeleteStory(ctx, 0), ErrInvalidStoryID)
	assert.Equal(t, []events.EventType{events.EventStoryCreated, events.EventStoryDeleted}, f.pub.types())
}
