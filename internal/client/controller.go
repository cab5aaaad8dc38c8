package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Defaults used when no option overrides them
const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

// Controller owns the board state of one view. Reads come from the Store;
// writes go to the API and are reconciled back into the Store.
type Controller struct {
	api      API
	boardID  int
	store    *Store
	guard    Guard
	debounce *Debouncer
	author   string
	timeout  time.Duration
	logger   *slog.Logger

	// serializes optimistic writes so rollbacks never interleave
	writeMu sync.Mutex
	loadSeq atomic.Uint64

	mu      sync.Mutex
	query   ranking.Query
	lastErr error

	changes chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithDebounce sets the quiet period before a query change triggers a fetch
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.debounce = NewDebouncer(d)
	}
}

// WithControllerAuthor attributes writes to name
func WithControllerAuthor(name string) ControllerOption {
	return func(c *Controller) {
		c.author = name
	}
}

// WithRequestTimeout bounds background fetches
func WithRequestTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithLogger sets the logger for background failures
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a controller for one board. Call Close when done.
func NewController(a API, boardID int, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:      a,
		boardID:  boardID,
		store:    NewStore(),
		debounce: NewDebouncer(DefaultDebounce),
		timeout:  DefaultRequestTimeout,
		logger:   slog.Default(),
		changes:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BoardID returns the board this controller shows
func (c *Controller) BoardID() int {
	return c.boardID
}

// Store exposes the reconciled state for rendering
func (c *Controller) Store() *Store {
	return c.store
}

// Changes delivers a signal after every store change. Signals coalesce:
// a reader that falls behind sees one pending signal, not a backlog.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Query returns the active filter
func (c *Controller) Query() ranking.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Err returns the error of the last background fetch, nil after a success
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Load fetches the board with the active query and replaces the store.
// A response overtaken by a newer request is discarded.
func (c *Controller) Load(ctx context.Context) error {
	seq := c.loadSeq.Add(1)
	ticket := c.guard.Next()
	q := c.Query()
	stories, err := c.api.ListStories(ctx, c.boardID, q)
	if !c.guard.IsLatest(ticket) {
		// Overtaken by a write rather than a newer load: nothing else will
		// apply the current query, so fetch again
		if c.loadSeq.Load() == seq {
			c.scheduleLoad()
		}
		return nil
	}
	c.setErr(err)
	if err != nil {
		c.notify()
		return fmt.Errorf("failed to load stories: %w", err)
	}
	c.store.Replace(stories)
	c.notify()
	return nil
}

// SetQuery changes the filter and schedules a debounced reload. Rapid
// calls (typing in a search box) result in a single fetch.
func (c *Controller) SetQuery(q ranking.Query) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
	c.store.SetSort(q.Sort)
	c.scheduleLoad()
}

// Refresh schedules a debounced reload with the current query
func (c *Controller) Refresh() {
	c.scheduleLoad()
}

// Flush runs a pending debounced reload immediately
func (c *Controller) Flush() {
	c.debounce.Flush()
}

func (c *Controller) scheduleLoad() {
	c.debounce.Trigger(func() {
		if c.ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		if err := c.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("background refresh failed", "board_id", c.boardID, "error", err)
		}
	})
}

// Story fetches one story with its activity log
func (c *Controller) Story(ctx context.Context, id int) (*models.Story, error) {
	return c.api.GetStory(ctx, id)
}

// Fields returns the field access levels of a story
func (c *Controller) Fields(ctx context.Context, id int) (map[workflow.Field]workflow.Access, error) {
	return c.api.FieldAccess(ctx, id)
}

// Members returns the names of the board's members
func (c *Controller) Members(ctx context.Context) ([]string, error) {
	members, err := c.api.ListMembers(ctx, c.boardID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names, nil
}

// Create adds a story and places it in the store when it matches the filter
func (c *Controller) Create(ctx context.Context, req storyservice.CreateStoryRequest) (*models.Story, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	req.BoardID = c.boardID
	if req.Author == "" {
		req.Author = c.author
	}
	c.guard.Next()
	st, err := c.api.CreateStory(ctx, req)
	if err != nil {
		return nil, err
	}
	c.reconcile(st)
	return st, nil
}

// Update applies a partial edit and reconciles the result
func (c *Controller) Update(ctx context.Context, req storyservice.UpdateStoryRequest) (*models.Story, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if req.Author == "" {
		req.Author = c.author
	}
	c.guard.Next()
	st, err := c.api.UpdateStory(ctx, req)
	if err != nil {
		return nil, err
	}
	c.reconcile(st)
	return st, nil
}

// Move shows the story in its new column right away and puts the story
// back if the backend rejects the move (a blocked gate, for example).
// Other stories are left as the latest load delivered them.
func (c *Controller) Move(ctx context.Context, id int, status models.Status) (*models.Story, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	current, ok := c.store.Get(id)
	if !ok {
		return nil, storyservice.ErrStoryNotFound
	}

	// In-flight fetches started before the move would overwrite it
	c.guard.Next()
	loads := c.store.Loads()
	optimistic := current.Clone()
	optimistic.Status = status
	c.store.Upsert(optimistic)
	c.notify()

	st, err := c.api.MoveStory(ctx, storyservice.MoveStoryRequest{StoryID: id, Status: status, Author: c.author})
	if err != nil {
		if c.store.Revert(current, loads) {
			c.notify()
		}
		return nil, err
	}
	c.reconcile(st)
	return st, nil
}

// MoveNext moves a story one status forward
func (c *Controller) MoveNext(ctx context.Context, id int) (*models.Story, error) {
	current, ok := c.store.Get(id)
	if !ok {
		return nil, storyservice.ErrStoryNotFound
	}
	next, ok := current.Status.Next()
	if !ok {
		return nil, fmt.Errorf("%w: %s is the last status", workflow.ErrTransitionBlocked, current.Status.Title())
	}
	return c.Move(ctx, id, next)
}

// MovePrev moves a story one status back
func (c *Controller) MovePrev(ctx context.Context, id int) (*models.Story, error) {
	current, ok := c.store.Get(id)
	if !ok {
		return nil, storyservice.ErrStoryNotFound
	}
	prev, ok := current.Status.Prev()
	if !ok {
		return nil, fmt.Errorf("%w: %s is the first status", workflow.ErrTransitionBlocked, current.Status.Title())
	}
	return c.Move(ctx, id, prev)
}

// Delete removes the story from the store first and restores it on failure
func (c *Controller) Delete(ctx context.Context, id int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.guard.Next()
	loads := c.store.Loads()
	current, held := c.store.Get(id)
	if held {
		c.store.Remove(id)
		c.notify()
	}
	if err := c.api.DeleteStory(ctx, id); err != nil {
		if held && c.store.Revert(current, loads) {
			c.notify()
		}
		return err
	}
	return nil
}

// Comment adds an entry to a story's activity log
func (c *Controller) Comment(ctx context.Context, id int, message string) (*models.Activity, error) {
	return c.api.AddComment(ctx, storyservice.CommentRequest{StoryID: id, Author: c.author, Message: message})
}

// Watch reloads the board whenever the backend reports a change, until ctx
// ends. Bursts of events collapse into one debounced reload.
func (c *Controller) Watch(ctx context.Context) error {
	w, ok := c.api.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	evs, err := w.Watch(ctx, c.boardID)
	if err != nil {
		return err
	}
	for range evs {
		c.scheduleLoad()
	}
	return ctx.Err()
}

// Close stops pending reloads and cancels background fetches
func (c *Controller) Close() {
	c.debounce.Stop()
	c.cancel()
}

// reconcile stores a server-confirmed story, or drops it when it no longer
// matches the active filter
func (c *Controller) reconcile(st *models.Story) {
	if c.Query().Matches(st) {
		c.store.Upsert(st)
	} else {
		c.store.Remove(st.ID)
	}
	c.notify()
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
