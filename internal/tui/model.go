// Package tui is the interactive board: one column per workflow status,
// driven by a client.Controller so it works against the local database
// or a remote server alike.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/huh/v2"
	"github.com/thenoetrevino/storyboard/internal/client"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/tui/huhforms"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

type mode int

const (
	boardMode mode = iota
	searchMode
	detailMode
	helpMode
	formMode
	confirmDeleteMode
)

// Messages produced by commands
type (
	changedMsg struct{}
	loadedMsg  struct{ err error }
	movedMsg   struct {
		story *models.Story
		from  models.Status
		err   error
	}
	detailMsg struct {
		story *models.Story
		err   error
	}
	watchEndedMsg struct{ err error }
	membersMsg    struct {
		names []string
		err   error
	}
	savedMsg struct {
		story   *models.Story
		created bool
		err     error
	}
	commentedMsg struct {
		id  int
		err error
	}
	deletedMsg struct {
		story *models.Story
		err   error
	}
)

type statusLine struct {
	text  string
	isErr bool
}

// Model is the Bubble Tea model of the board
type Model struct {
	ctx     context.Context
	ctrl    *client.Controller
	keys    config.KeyMappings
	styles  Styles
	timeout time.Duration
	watch   bool

	width, height int
	mode          mode
	column        int
	rows          map[models.Status]int

	search     textinput.Model
	prevSearch string
	tagIdx     int // -1 shows every tag

	detail   *models.Story
	viewport viewport.Model

	// the open huh form; submit runs when it completes with confirm set
	form      *huh.Form
	formTitle string
	formTheme huh.Theme
	draft     *huhforms.StoryDraft
	comment   *string
	confirm   *bool
	submit    tea.Cmd
	members   []string

	deleting *models.Story

	status statusLine
}

// Option configures a Model
type Option func(*Model)

// WithWatch subscribes to backend change events for live updates
func WithWatch() Option {
	return func(m *Model) {
		m.watch = true
	}
}

// WithRequestTimeout bounds each write and detail fetch
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New creates the board model. ctx bounds every background command.
func New(ctx context.Context, ctrl *client.Controller, cfg *config.Config, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search title and description"

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		keys:      cfg.KeyMappings,
		styles:    NewStyles(cfg.ColorScheme),
		formTheme: huhforms.Theme(cfg.ColorScheme),
		timeout:   client.DefaultRequestTimeout,
		rows:      make(map[models.Status]int),
		search:    ti,
		tagIdx:    -1,
		viewport:  viewport.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the board and starts listening for store changes
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load(), m.loadMembers(), m.waitForChange()}
	if m.watch {
		cmds = append(cmds, m.watchBoard())
	}
	return tea.Batch(cmds...)
}

// Run starts the board as a full-screen program and blocks until it quits
func Run(ctx context.Context, ctrl *client.Controller, cfg *config.Config, opts ...Option) error {
	p := tea.NewProgram(New(ctx, ctrl, cfg, opts...), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ============================================================================
// COMMANDS
// ============================================================================

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return loadedMsg{err: m.ctrl.Load(ctx)}
	}
}

// waitForChange blocks until the controller reports a store change
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctrl.Changes():
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) watchBoard() tea.Cmd {
	return func() tea.Msg {
		return watchEndedMsg{err: m.ctrl.Watch(m.ctx)}
	}
}

func (m Model) move(id int, forward bool) tea.Cmd {
	from := models.Status("")
	if st, ok := m.ctrl.Store().Get(id); ok {
		from = st.Status
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		var (
			st  *models.Story
			err error
		)
		if forward {
			st, err = m.ctrl.MoveNext(ctx, id)
		} else {
			st, err = m.ctrl.MovePrev(ctx, id)
		}
		return movedMsg{story: st, from: from, err: err}
	}
}

func (m Model) loadMembers() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		names, err := m.ctrl.Members(ctx)
		return membersMsg{names: names, err: err}
	}
}

// saveStory creates or updates the story behind d
func (m Model) saveStory(d *huhforms.StoryDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		if d.IsNew() {
			req, err := d.CreateRequest()
			if err != nil {
				return savedMsg{created: true, err: err}
			}
			st, err := m.ctrl.Create(ctx, req)
			return savedMsg{story: st, created: true, err: err}
		}
		req, err := d.UpdateRequest()
		if err != nil {
			return savedMsg{err: err}
		}
		st, err := m.ctrl.Update(ctx, req)
		return savedMsg{story: st, err: err}
	}
}

func (m Model) addComment(id int, message *string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		_, err := m.ctrl.Comment(ctx, id, strings.TrimSpace(*message))
		return commentedMsg{id: id, err: err}
	}
}

func (m Model) deleteStory(st *models.Story) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return deletedMsg{story: st, err: m.ctrl.Delete(ctx, st.ID)}
	}
}

func (m Model) openDetail(id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		st, err := m.ctrl.Story(ctx, id)
		return detailMsg{story: st, err: err}
	}
}

// ============================================================================
// SELECTION
// ============================================================================

func (m Model) currentStatus() models.Status {
	return models.Statuses()[m.column]
}

// selected returns the story under the cursor, or nil for an empty column
func (m Model) selected() *models.Story {
	status := m.currentStatus()
	stories := m.ctrl.Store().Column(status)
	if len(stories) == 0 {
		return nil
	}
	row := min(m.rows[status], len(stories)-1)
	return stories[row]
}

// clamp keeps every column's cursor inside its column after the store changes
func (m *Model) clamp() {
	for _, status := range models.Statuses() {
		n := len(m.ctrl.Store().Column(status))
		switch {
		case n == 0:
			m.rows[status] = 0
		case m.rows[status] >= n:
			m.rows[status] = n - 1
		}
	}
}

// follow moves the cursor onto story id in its current column
func (m *Model) follow(id int) {
	st, ok := m.ctrl.Store().Get(id)
	if !ok {
		return
	}
	m.column = st.Status.Index()
	for i, s := range m.ctrl.Store().Column(st.Status) {
		if s.ID == id {
			m.rows[st.Status] = i
			return
		}
	}
}

func (m *Model) info(text string) {
	m.status = statusLine{text: text}
}

func (m *Model) fail(err error) {
	m.status = statusLine{text: describeError(err), isErr: true}
}

// describeError turns a blocked transition into the list of what is missing
func describeError(err error) string {
	var gate *workflow.GateError
	if errors.As(err, &gate) && len(gate.Unmet) > 0 {
		unmet := make([]string, len(gate.Unmet))
		for i, r := range gate.Unmet {
			unmet[i] = r.Message
		}
		return "Blocked: " + strings.Join(unmet, "; ")
	}
	return err.Error()
}
