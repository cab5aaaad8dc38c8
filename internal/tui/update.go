package tui

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/huh/v2"
	"github.com/thenoetrevino/storyboard/internal/client"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/tui/huhforms"
)

// Update handles every message of the board
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.search.SetWidth(max(msg.Width-4, 10))
		m.viewport.SetWidth(max(msg.Width-4, 10))
		m.viewport.SetHeight(max(msg.Height-4, 3))
		return m, nil

	case changedMsg:
		m.clamp()
		return m, m.waitForChange()

	case loadedMsg:
		if msg.err != nil {
			m.fail(msg.err)
		}
		return m, nil

	case movedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			m.clamp()
			return m, nil
		}
		m.follow(msg.story.ID)
		m.info(fmt.Sprintf("Moved #%d from %s to %s", msg.story.ID, msg.from.Title(), msg.story.Status.Title()))
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.detail = msg.story
		m.viewport.SetContent(m.renderDetail(msg.story))
		m.viewport.GotoTop()
		m.mode = detailMode
		return m, nil

	case membersMsg:
		if msg.err != nil {
			m.fail(fmt.Errorf("failed to load members: %w", msg.err))
			return m, nil
		}
		m.members = msg.names
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.follow(msg.story.ID)
		if msg.created {
			m.info(fmt.Sprintf("Created #%d", msg.story.ID))
		} else {
			m.info(fmt.Sprintf("Saved #%d", msg.story.ID))
		}
		return m, nil

	case commentedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.info(fmt.Sprintf("Commented on #%d", msg.id))
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			m.clamp()
			return m, nil
		}
		m.clamp()
		m.info(fmt.Sprintf("Deleted #%d", msg.story.ID))
		return m, nil

	case watchEndedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, client.ErrWatchUnsupported) {
			m.fail(fmt.Errorf("live updates stopped: %w", msg.err))
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case formMode:
			return m.updateForm(msg)
		case confirmDeleteMode:
			return m.updateConfirmDelete(msg)
		case searchMode:
			return m.updateSearch(msg)
		case detailMode:
			return m.updateDetail(msg)
		case helpMode:
			m.mode = boardMode
			return m, nil
		default:
			return m.updateBoard(msg)
		}
	}

	switch m.mode {
	case searchMode:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	case formMode:
		return m.updateForm(msg)
	}
	return m, nil
}

// ============================================================================
// BOARD MODE
// ============================================================================

func (m Model) updateBoard(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.status = statusLine{}
	km := m.keys

	switch msg.String() {
	case km.Quit:
		return m, tea.Quit
	case km.ShowHelp:
		m.mode = helpMode
	case km.PrevColumn, "left":
		if m.column > 0 {
			m.column--
		} else {
			m.info("Already at the first column")
		}
	case km.NextColumn, "right":
		if m.column < len(models.Statuses())-1 {
			m.column++
		} else {
			m.info("Already at the last column")
		}
	case km.PrevStory, "up":
		status := m.currentStatus()
		if m.rows[status] > 0 {
			m.rows[status]--
		}
	case km.NextStory, "down":
		status := m.currentStatus()
		if m.rows[status] < len(m.ctrl.Store().Column(status))-1 {
			m.rows[status]++
		}
	case km.MoveForward, km.MoveBack:
		st := m.selected()
		if st == nil {
			m.info("No story selected")
			return m, nil
		}
		return m, m.move(st.ID, msg.String() == km.MoveForward)
	case km.ViewStory:
		st := m.selected()
		if st == nil {
			return m, nil
		}
		return m, m.openDetail(st.ID)
	case km.NewStory:
		return m.openStoryForm(huhforms.NewDraft())
	case km.EditStory:
		st := m.selected()
		if st == nil {
			m.info("No story selected")
			return m, nil
		}
		d := huhforms.DraftFrom(st)
		if len(d.Fields()) == 0 {
			m.info("Nothing to edit in " + st.Status.Title())
			return m, nil
		}
		return m.openStoryForm(d)
	case km.AddComment:
		st := m.selected()
		if st == nil {
			m.info("No story selected")
			return m, nil
		}
		m.comment = new(string)
		return m.openForm(fmt.Sprintf("Comment on #%d", st.ID), huhforms.CommentForm(m.comment), nil, m.addComment(st.ID, m.comment))
	case km.DeleteStory:
		st := m.selected()
		if st == nil {
			m.info("No story selected")
			return m, nil
		}
		m.deleting = st
		m.mode = confirmDeleteMode
	case km.Search:
		m.mode = searchMode
		m.prevSearch = m.search.Value()
		return m, m.search.Focus()
	case km.CycleTag:
		m.tagIdx++
		if m.tagIdx >= len(models.TagVocabulary) {
			m.tagIdx = -1
		}
		m.applyFilter()
		if tag := m.tagFilter(); tag != "" {
			m.info("Showing #" + tag)
		} else {
			m.info("Showing every tag")
		}
	case km.Refresh:
		m.ctrl.Refresh()
		m.info("Refreshing…")
	case "esc":
		if m.tagIdx >= 0 || m.search.Value() != "" {
			m.tagIdx = -1
			m.search.SetValue("")
			m.applyFilter()
			m.info("Filters cleared")
		}
	}
	return m, nil
}

// tagFilter returns the active tag, or "" when every tag is shown
func (m Model) tagFilter() string {
	if m.tagIdx < 0 {
		return ""
	}
	return models.TagVocabulary[m.tagIdx].Name
}

// applyFilter pushes the tag and search filters to the controller, which
// debounces the reload
func (m Model) applyFilter() {
	q := m.ctrl.Query()
	q.Tags = nil
	if tag := m.tagFilter(); tag != "" {
		q.Tags = []string{tag}
	}
	q.Text = m.search.Value()
	m.ctrl.SetQuery(q)
}

// ============================================================================
// SEARCH MODE
// ============================================================================

func (m Model) updateSearch(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = boardMode
		return m, nil
	case "esc":
		m.search.SetValue(m.prevSearch)
		m.search.Blur()
		m.mode = boardMode
		m.applyFilter()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

// ============================================================================
// DETAIL MODE
// ============================================================================

func (m Model) updateDetail(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", m.keys.Quit, m.keys.ViewStory:
		m.mode = boardMode
		m.detail = nil
		return m, nil
	case m.keys.NextStory:
		m.viewport.ScrollDown(1)
		return m, nil
	case m.keys.PrevStory:
		m.viewport.ScrollUp(1)
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// ============================================================================
// FORM MODE
// ============================================================================

func (m Model) openStoryForm(d *huhforms.StoryDraft) (tea.Model, tea.Cmd) {
	title := "New story"
	if !d.IsNew() {
		title = fmt.Sprintf("Edit #%d", d.StoryID())
	}
	m.draft = d
	return m.openForm(title, huhforms.StoryForm(d, m.members), &d.Confirm, m.saveStory(d))
}

// openForm shows form; submit runs once it completes, unless confirm ends
// up false
func (m Model) openForm(title string, form *huh.Form, confirm *bool, submit tea.Cmd) (tea.Model, tea.Cmd) {
	m.form = form.WithTheme(m.formTheme)
	m.formTitle = title
	m.confirm = confirm
	m.submit = submit
	m.mode = formMode
	return m, m.form.Init()
}

func (m Model) formWidth() int {
	return max(m.width*3/4, 40)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = boardMode
		return m, nil
	}

	if kp, ok := msg.(tea.KeyPressMsg); ok {
		switch kp.String() {
		case "esc":
			m.closeForm()
			m.info("Discarded")
			return m, nil
		case m.keys.SaveForm:
			if m.confirm != nil {
				*m.confirm = true
			}
			m.form.State = huh.StateCompleted
			return m.completeForm()
		}
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m.completeForm()
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

// completeForm closes the form and runs its submit command when confirmed
func (m Model) completeForm() (tea.Model, tea.Cmd) {
	submit := m.submit
	confirmed := m.confirm == nil || *m.confirm
	m.closeForm()
	if !confirmed || submit == nil {
		m.info("Discarded")
		return m, nil
	}
	return m, submit
}

func (m *Model) closeForm() {
	m.form = nil
	m.formTitle = ""
	m.draft = nil
	m.comment = nil
	m.confirm = nil
	m.submit = nil
	m.mode = boardMode
}

// ============================================================================
// DELETE CONFIRMATION
// ============================================================================

func (m Model) updateConfirmDelete(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	st := m.deleting
	switch msg.String() {
	case "y", "Y":
		m.deleting = nil
		m.mode = boardMode
		if st == nil {
			return m, nil
		}
		return m, m.deleteStory(st)
	case "n", "N", "esc":
		m.deleting = nil
		m.mode = boardMode
	}
	return m, nil
}
