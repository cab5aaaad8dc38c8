package server

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/storyboard/internal/api"
	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/cache"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/testutil"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

type testEnv struct {
	srv   *Server
	app   *app.App
	bus   *events.Bus
	redis *miniredis.Miniredis
}

func newTestEnv(t *testing.T, withRedis bool) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	bus := events.NewBus(events.DefaultBuffer)
	t.Cleanup(bus.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := app.New(db, app.WithEventPublisher(bus), app.WithLogger(logger))
	opts := Options{Bus: bus, Logger: logger, Heartbeat: 50 * time.Millisecond}

	env := &testEnv{app: a, bus: bus}
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		opts.Cache = cache.NewStoryCache(a.StoryService, client, time.Minute)
		opts.Deduper = cache.NewDeduper(client, time.Hour)
		env.redis = mr
	}
	env.srv = New(a, opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[api.ErrorBody](t, rec).Error.Code
}

func (e *testEnv) createBoard(t *testing.T, name string, members ...string) *models.Board {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/boards", map[string]any{"name": name, "members": members})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Board](t, rec)
}

func (e *testEnv) createStory(t *testing.T, boardID int, body map[string]any) *models.Story {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/boards/"+strconv.Itoa(boardID)+"/stories", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Story](t, rec)
}

func storyPath(id int, suffix string) string {
	return "/api/stories/" + strconv.Itoa(id) + suffix
}

// ============================================================================
// Health and metrics
// ============================================================================

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[api.Health](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	require.NoError(t, env.app.Close())
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/api/tags", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	tags := decode[[]models.Tag](t, rec)
	require.Len(t, tags, len(models.TagVocabulary))
	assert.Equal(t, "frontend", tags[0].Name)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, false)
	env.createBoard(t, "Roadmap")
	env.do(t, http.MethodGet, "/api/boards/999", nil)

	rec := env.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[MetricsSnapshot](t, rec)
	assert.GreaterOrEqual(t, snap.RequestsTotal, int64(2))
	assert.Equal(t, int64(0), snap.ErrorsTotal, "404 is not a server error")
	require.NotNil(t, snap.Bus)
	assert.Equal(t, int64(1), snap.Bus.Published)
}

// ============================================================================
// Boards and members
// ============================================================================

func TestBoards_CRUD(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap", "Ada")

	rec := env.do(t, http.MethodGet, "/api/boards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*models.Board](t, rec), 1)

	rec = env.do(t, http.MethodPatch, "/api/boards/"+strconv.Itoa(board.ID), map[string]any{"description": "Q3 ideas"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[*models.Board](t, rec)
	assert.Equal(t, "Roadmap", updated.Name)
	assert.Equal(t, "Q3 ideas", updated.Description)

	rec = env.do(t, http.MethodDelete, "/api/boards/"+strconv.Itoa(board.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/boards/"+strconv.Itoa(board.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeBoardNotFound, errorCode(t, rec))
}

func TestBoards_Validation(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/boards", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeInvalidRequest, errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/boards", map[string]any{"name": "x", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec = env.do(t, http.MethodGet, "/api/boards/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeNotFound, errorCode(t, rec))
}

func TestMembers(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	base := "/api/boards/" + strconv.Itoa(board.ID) + "/members"

	rec := env.do(t, http.MethodPost, base, api.MemberRequest{Name: "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ada := decode[*models.Member](t, rec)

	rec = env.do(t, http.MethodPost, base, api.MemberRequest{Name: "Ada"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeDuplicateMember, errorCode(t, rec))

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Len(t, decode[[]*models.Member](t, rec), 1)

	rec = env.do(t, http.MethodDelete, base+"/"+strconv.Itoa(ada.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, base+"/"+strconv.Itoa(ada.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeMemberNotFound, errorCode(t, rec))
}

// ============================================================================
// Stories
// ============================================================================

func TestStories_Lifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap", "Ada")

	st := env.createStory(t, board.ID, map[string]any{
		"title":             "Offline sync",
		"tags":              []string{"data", "backend"},
		"business_value":    80,
		"problem_validated": true,
	})
	assert.Equal(t, models.StatusIdea, st.Status)
	assert.Equal(t, []string{"backend", "data"}, st.Tags)

	// Gate into ready is not met yet
	rec := env.do(t, http.MethodPost, storyPath(st.ID, "/move"), map[string]any{"status": "ready"})
	require.Equal(t, http.StatusConflict, rec.Code)
	detail := decode[api.ErrorBody](t, rec).Error
	assert.Equal(t, api.CodeTransitionBlocked, detail.Code)
	assert.Equal(t, models.StatusReady, detail.To)
	assert.NotEmpty(t, detail.Unmet)

	rec = env.do(t, http.MethodPost, storyPath(st.ID, "/move"), map[string]any{"status": "Refinement"}, api.HeaderAuthor, "Ada")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusRefinement, decode[*models.Story](t, rec).Status)

	rec = env.do(t, http.MethodPatch, storyPath(st.ID, ""), map[string]any{
		"story_points":        5,
		"moscow":              "must",
		"acceptance_criteria": []string{"works offline"},
		"criteria_agreed":     true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, storyPath(st.ID, "/move"), map[string]any{"status": "ready"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, storyPath(st.ID, "/fields"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fields := decode[api.FieldsResponse](t, rec)
	assert.Equal(t, models.StatusReady, fields.Status)
	assert.Equal(t, workflow.Editable, fields.Fields[workflow.FieldAssignees])
	assert.Equal(t, workflow.Hidden, fields.Fields[workflow.FieldDevComplete])

	rec = env.do(t, http.MethodPost, storyPath(st.ID, "/activity"), map[string]any{"message": "looks good"}, api.HeaderAuthor, "Ada")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Ada", decode[*models.Activity](t, rec).Author)

	rec = env.do(t, http.MethodGet, storyPath(st.ID, "/activity"), nil)
	activity := decode[[]*models.Activity](t, rec)
	require.NotEmpty(t, activity)
	assert.Equal(t, models.ActivityComment, activity[len(activity)-1].Kind)

	rec = env.do(t, http.MethodGet, storyPath(st.ID, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[*models.Story](t, rec).Activity)

	rec = env.do(t, http.MethodDelete, storyPath(st.ID, ""), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, storyPath(st.ID, ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeStoryNotFound, errorCode(t, rec))
}

func TestStories_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	st := env.createStory(t, board.ID, map[string]any{"title": "Search"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad value", http.MethodPatch, storyPath(st.ID, ""), map[string]any{"business_value": 500}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"locked field", http.MethodPatch, storyPath(st.ID, ""), map[string]any{"story_points": 3}, http.StatusConflict, api.CodeFieldLocked},
		{"same status", http.MethodPost, storyPath(st.ID, "/move"), map[string]any{"status": "idea"}, http.StatusConflict, api.CodeSameStatus},
		{"unknown status", http.MethodPost, storyPath(st.ID, "/move"), map[string]any{"status": "archived"}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"empty comment", http.MethodPost, storyPath(st.ID, "/activity"), map[string]any{"message": ""}, http.StatusBadRequest, api.CodeInvalidRequest},
		{"missing story", http.MethodGet, storyPath(999, ""), nil, http.StatusNotFound, api.CodeStoryNotFound},
		{"missing board", http.MethodGet, "/api/boards/999/stories", nil, http.StatusNotFound, api.CodeBoardNotFound},
		{"bad filter", http.MethodGet, "/api/boards/" + strconv.Itoa(board.ID) + "/stories?tag=marketing", nil, http.StatusBadRequest, api.CodeInvalidRequest},
		{"bad sort", http.MethodGet, "/api/boards/" + strconv.Itoa(board.ID) + "/stories?sort=random", nil, http.StatusBadRequest, api.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	rec := env.do(t, http.MethodPatch, storyPath(st.ID, ""), map[string]any{"story_points": 3})
	detail := decode[api.ErrorBody](t, rec).Error
	assert.Equal(t, workflow.FieldStoryPoints, detail.Field)
	assert.Equal(t, "hidden", detail.Access)
}

func TestStories_ListFilters(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	env.createStory(t, board.ID, map[string]any{"title": "Search", "tags": []string{"backend"}, "business_value": 10})
	env.createStory(t, board.ID, map[string]any{"title": "Dark mode", "tags": []string{"frontend"}, "business_value": 90})
	base := "/api/boards/" + strconv.Itoa(board.ID) + "/stories"

	rec := env.do(t, http.MethodGet, base+"?sort=value", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]*models.Story](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, "Dark mode", all[0].Title)

	rec = env.do(t, http.MethodGet, base+"?tag=backend", nil)
	got := decode[[]*models.Story](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "Search", got[0].Title)

	rec = env.do(t, http.MethodGet, base+"?q=nothing", nil)
	assert.JSONEq(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestStories_Dependencies(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	a := env.createStory(t, board.ID, map[string]any{"title": "A", "problem_validated": true})
	b := env.createStory(t, board.ID, map[string]any{"title": "B", "problem_validated": true})
	for _, id := range []int{a.ID, b.ID} {
		rec := env.do(t, http.MethodPost, storyPath(id, "/move"), map[string]any{"status": "refinement"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, storyPath(a.ID, "/dependencies/"+strconv.Itoa(b.ID)), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{b.ID}, decode[*models.Story](t, rec).DependsOn)

	rec = env.do(t, http.MethodPost, storyPath(b.ID, "/dependencies/"+strconv.Itoa(a.ID)), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeCircularDep, errorCode(t, rec))

	rec = env.do(t, http.MethodPost, storyPath(a.ID, "/dependencies/"+strconv.Itoa(a.ID)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, storyPath(a.ID, "/dependencies/"+strconv.Itoa(b.ID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[*models.Story](t, rec).DependsOn)

	rec = env.do(t, http.MethodDelete, storyPath(a.ID, "/dependencies/"+strconv.Itoa(b.ID)), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeDependencyMissing, errorCode(t, rec))
}

func TestExportTaiga(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Mobile App", "Ada")
	env.createStory(t, board.ID, map[string]any{"title": "Search", "assignees": []string{}})

	rec := env.do(t, http.MethodGet, "/api/boards/"+strconv.Itoa(board.ID)+"/export/taiga", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mobile-app-taiga.json")

	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "mobile-app", doc["slug"])
	assert.Len(t, doc["user_stories"], 1)
}

// ============================================================================
// Cache and idempotency
// ============================================================================

func TestCache_EvictedAfterWrites(t *testing.T) {
	env := newTestEnv(t, true)
	board := env.createBoard(t, "Roadmap")
	key := "stories:" + strconv.Itoa(board.ID)
	base := "/api/boards/" + strconv.Itoa(board.ID) + "/stories"

	rec := env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.redis.Exists(key))

	st := env.createStory(t, board.ID, map[string]any{"title": "Search"})
	assert.False(t, env.redis.Exists(key), "create evicts the board snapshot")

	rec = env.do(t, http.MethodGet, base, nil)
	require.Len(t, decode[[]*models.Story](t, rec), 1)
	assert.True(t, env.redis.Exists(key))

	rec = env.do(t, http.MethodPatch, storyPath(st.ID, ""), map[string]any{"title": "Search v2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.redis.Exists(key))

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, "Search v2", decode[[]*models.Story](t, rec)[0].Title)
	assert.Equal(t, int64(2), env.srv.Metrics().CacheEvictions.Load())
}

func TestCreateStory_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t, true)
	board := env.createBoard(t, "Roadmap")
	path := "/api/boards/" + strconv.Itoa(board.ID) + "/stories"

	// A failed create releases the key
	rec := env.do(t, http.MethodPost, path, map[string]any{"title": ""}, api.HeaderIdempotencyKey, "k1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]any{"title": "Search"}, api.HeaderIdempotencyKey, "k1")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, path, map[string]any{"title": "Search"}, api.HeaderIdempotencyKey, "k1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeDuplicateRequest, errorCode(t, rec))

	rec = env.do(t, http.MethodGet, path, nil)
	assert.Len(t, decode[[]*models.Story](t, rec), 1)
}

func TestCreateStory_IdempotencyIgnoredWithoutRedis(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	path := "/api/boards/" + strconv.Itoa(board.ID) + "/stories"

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, path, map[string]any{"title": "Search"}, api.HeaderIdempotencyKey, "k1")
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

// ============================================================================
// Event stream
// ============================================================================

func TestStream_DeliversBoardEvents(t *testing.T) {
	env := newTestEnv(t, false)
	board := env.createBoard(t, "Roadmap")
	other := env.createBoard(t, "Other")

	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/boards/"+strconv.Itoa(board.ID)+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	env.createStory(t, other.ID, map[string]any{"title": "Elsewhere"})
	st := env.createStory(t, board.ID, map[string]any{"title": "Search"})

	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, string(events.EventStoryCreated), eventLine)

	var ev events.Event
	require.NoError(t, sonic.UnmarshalString(dataLine, &ev))
	assert.Equal(t, board.ID, ev.BoardID)
	assert.Equal(t, st.ID, ev.StoryID)
	assert.Equal(t, int32(1), env.srv.Metrics().ConnectedClients.Load())

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, env.srv.Shutdown(shutdownCtx))
}

func TestStream_UnknownBoard(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/api/boards/42/stream", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
