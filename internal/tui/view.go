package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

const (
	minColumnWidth = 18
	// cardHeight is the rendered height of one card including its border
	cardHeight = 6
)

// View renders the board, or the detail and help screens over it
func (m Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if m.width == 0 {
		view.Content = "Loading..."
		return view
	}

	switch m.mode {
	case detailMode:
		view.Content = m.viewDetail()
	case helpMode:
		view.Content = m.viewHelp()
	case formMode:
		view.Content = m.viewForm()
	case confirmDeleteMode:
		view.Content = m.viewConfirmDelete()
	default:
		view.Content = lipgloss.JoinVertical(lipgloss.Left,
			m.viewHeader(),
			m.viewBoard(),
			m.viewStatusBar(),
		)
	}
	return view
}

func (m Model) viewHeader() string {
	parts := []string{m.styles.Header.Render(fmt.Sprintf("Board #%d", m.ctrl.BoardID()))}
	if tag := m.tagFilter(); tag != "" {
		parts = append(parts, m.styles.Tag(tag))
	}
	if q := m.search.Value(); q != "" && m.mode != searchMode {
		parts = append(parts, m.styles.Subtle.Render(fmt.Sprintf("search: %q", q)))
	}
	return strings.Join(parts, " ")
}

func (m Model) viewBoard() string {
	statuses := models.Statuses()
	width := max(m.width/len(statuses)-2, minColumnWidth)
	// header, status bar and column borders
	height := max(m.height-4, cardHeight+2)

	cols := make([]string, len(statuses))
	for i, status := range statuses {
		cols[i] = m.renderColumn(status, i == m.column, width, height)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// renderColumn renders one status lane, scrolled so the cursor stays visible
func (m Model) renderColumn(status models.Status, selected bool, width, height int) string {
	stories := m.ctrl.Store().Column(status)
	header := m.styles.ColumnTitle.Render(fmt.Sprintf("%s (%d)", status.Title(), len(stories)))

	lines := []string{header}
	if len(stories) == 0 {
		lines = append(lines, m.styles.Subtle.Italic(true).Render("No stories"))
	} else {
		visible := max((height-3)/cardHeight, 1)
		row := m.rows[status]
		offset := 0
		if row >= visible {
			offset = row - visible + 1
		}
		end := min(offset+visible, len(stories))
		if offset > 0 {
			lines = append(lines, m.styles.Subtle.Render("▲ more above"))
		}
		for i := offset; i < end; i++ {
			lines = append(lines, m.renderCard(stories[i], selected && i == row, width))
		}
		if end < len(stories) {
			lines = append(lines, m.styles.Subtle.Render("▼ more below"))
		}
	}

	style := m.styles.Column
	if selected {
		style = m.styles.SelectedColumn
	}
	return style.Width(width + 2).Height(height).Render(strings.Join(lines, "\n"))
}

// renderCard shows the fields visible in the story's status:
//
//	#12 Offline sync for the
//	mobile app
//	Must · MVP 10.00
//	#frontend @ana
func (m Model) renderCard(s *models.Story, selected bool, width int) string {
	inner := max(width-2, 8)
	visible := func(f workflow.Field) bool {
		return workflow.AccessFor(s.Status, f).Visible()
	}

	title := wordwrap.String(fmt.Sprintf("#%d %s", s.ID, s.Title), inner)
	titleLines := strings.Split(title, "\n")
	if len(titleLines) > 2 {
		titleLines = titleLines[:2]
		titleLines[1] = truncate.StringWithTail(titleLines[1], uint(inner-1), "…")
	}

	var meta []string
	if visible(workflow.FieldMoSCoW) {
		if badge := m.styles.MoSCoW(s.MoSCoW); badge != "" {
			meta = append(meta, badge)
		}
	}
	if visible(workflow.FieldStoryPoints) {
		if score := ranking.MVPScore(s); score > 0 {
			meta = append(meta, fmt.Sprintf("MVP %.2f", score))
		} else if s.StoryPoints != nil {
			meta = append(meta, fmt.Sprintf("%d pts", *s.StoryPoints))
		}
	}
	if visible(workflow.FieldBusinessValue) && s.BusinessValue != nil && len(meta) == 0 {
		meta = append(meta, fmt.Sprintf("BV %d", *s.BusinessValue))
	}

	var people []string
	for _, t := range s.Tags {
		people = append(people, m.styles.Tag(t))
	}
	if visible(workflow.FieldAssignees) {
		for _, a := range s.Assignees {
			people = append(people, "@"+a)
		}
	}

	for len(titleLines) < 2 {
		titleLines = append(titleLines, "")
	}
	lines := []string{m.styles.CardTitle.Render(strings.Join(titleLines, "\n"))}
	lines = append(lines,
		truncate.StringWithTail(strings.Join(meta, " · "), uint(inner), "…"),
		truncate.StringWithTail(strings.Join(people, " "), uint(inner), "…"),
	)

	style := m.styles.Card
	if selected {
		style = m.styles.SelectedCard
	}
	return style.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

func (m Model) viewStatusBar() string {
	if m.mode == searchMode {
		return m.search.View()
	}
	if m.status.text != "" {
		if m.status.isErr {
			return m.styles.Error.Render(m.status.text)
		}
		return m.styles.Info.Render(m.status.text)
	}
	if err := m.ctrl.Err(); err != nil {
		return m.styles.Error.Render(describeError(err))
	}
	return m.styles.Subtle.Render(fmt.Sprintf("%s help · %s quit", m.keys.ShowHelp, m.keys.Quit))
}

func (m Model) viewDetail() string {
	footer := m.styles.Subtle.Render("esc back · ↑/↓ scroll")
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Detail.Render(m.viewport.View()),
		footer,
	)
}

// renderDetail lists a story's visible fields in form order, then its activity
func (m Model) renderDetail(s *models.Story) string {
	width := max(m.viewport.Width(), 20)

	var b strings.Builder
	b.WriteString(m.styles.ColumnTitle.Render(fmt.Sprintf("#%d %s", s.ID, s.Title)))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render(s.Status.Title()))
	b.WriteString("\n\n")

	for _, f := range workflow.VisibleFields(s.Status) {
		if f == workflow.FieldTitle {
			continue
		}
		label := m.styles.Label.Render(fieldLabel(f) + ":")
		value := m.fieldValue(s, f)
		if f == workflow.FieldDescription || f == workflow.FieldAcceptanceCriteria {
			b.WriteString(label + "\n" + wordwrap.String(value, width) + "\n\n")
			continue
		}
		b.WriteString(label + " " + value + "\n")
	}

	if len(s.Activity) > 0 {
		b.WriteString("\n" + m.styles.Label.Render("Activity") + "\n")
		for _, a := range s.Activity {
			who := a.Author
			if who == "" {
				who = "someone"
			}
			line := fmt.Sprintf("%s %s: %s", a.CreatedAt.Format("Jan 2 15:04"), who, a.Message)
			b.WriteString(wordwrap.String(line, width) + "\n")
		}
	}
	return b.String()
}

var fieldLabels = map[workflow.Field]string{
	workflow.FieldTitle:              "Title",
	workflow.FieldDescription:        "Description",
	workflow.FieldTags:               "Tags",
	workflow.FieldBusinessValue:      "Business value",
	workflow.FieldMoSCoW:             "MoSCoW",
	workflow.FieldAcceptanceCriteria: "Acceptance criteria",
	workflow.FieldStoryPoints:        "Story points",
	workflow.FieldDependencies:       "Depends on",
	workflow.FieldAssignees:          "Assignees",
	workflow.FieldProblemValidated:   "Problem validated",
	workflow.FieldCriteriaAgreed:     "Criteria agreed",
	workflow.FieldDevComplete:        "Development complete",
	workflow.FieldQAPassed:           "QA passed",
}

func fieldLabel(f workflow.Field) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

func (m Model) fieldValue(s *models.Story, f workflow.Field) string {
	none := m.styles.Subtle.Render("-")
	intOrNone := func(v *int) string {
		if v == nil {
			return none
		}
		return fmt.Sprint(*v)
	}
	check := func(done bool) string {
		if done {
			return "[x]"
		}
		return "[ ]"
	}

	switch f {
	case workflow.FieldDescription:
		if s.Description == "" {
			return none
		}
		return s.Description
	case workflow.FieldTags:
		if len(s.Tags) == 0 {
			return none
		}
		chips := make([]string, len(s.Tags))
		for i, t := range s.Tags {
			chips[i] = m.styles.Tag(t)
		}
		return strings.Join(chips, " ")
	case workflow.FieldBusinessValue:
		return intOrNone(s.BusinessValue)
	case workflow.FieldMoSCoW:
		if badge := m.styles.MoSCoW(s.MoSCoW); badge != "" {
			return badge
		}
		return none
	case workflow.FieldAcceptanceCriteria:
		if len(s.AcceptanceCriteria) == 0 {
			return none
		}
		items := make([]string, len(s.AcceptanceCriteria))
		for i, c := range s.AcceptanceCriteria {
			items[i] = "• " + c
		}
		return strings.Join(items, "\n")
	case workflow.FieldStoryPoints:
		v := intOrNone(s.StoryPoints)
		if score := ranking.MVPScore(s); score > 0 {
			v += fmt.Sprintf(" (MVP %.2f)", score)
		}
		return v
	case workflow.FieldDependencies:
		if len(s.DependsOn) == 0 {
			return none
		}
		ids := make([]string, len(s.DependsOn))
		for i, id := range s.DependsOn {
			ids[i] = fmt.Sprintf("#%d", id)
		}
		return strings.Join(ids, ", ")
	case workflow.FieldAssignees:
		if len(s.Assignees) == 0 {
			return none
		}
		return strings.Join(s.Assignees, ", ")
	case workflow.FieldProblemValidated:
		return check(s.Checklist.ProblemValidated)
	case workflow.FieldCriteriaAgreed:
		return check(s.Checklist.CriteriaAgreed)
	case workflow.FieldDevComplete:
		return check(s.Checklist.DevComplete)
	case workflow.FieldQAPassed:
		return check(s.Checklist.QAPassed)
	}
	return none
}

// viewForm renders the open form in a centered box
func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	footer := m.styles.Subtle.Render(fmt.Sprintf("%s save · esc discard", m.keys.SaveForm))
	box := m.styles.Detail.
		Width(m.formWidth()).
		Render(m.styles.ColumnTitle.Render(m.formTitle) + "\n\n" + m.form.View() + "\n" + footer)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewConfirmDelete() string {
	if m.deleting == nil {
		return ""
	}
	box := m.styles.Confirm.
		Width(50).
		Render(fmt.Sprintf("Delete '#%d %s'?\n\n[y]es  [n]o", m.deleting.ID, m.deleting.Title))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewHelp() string {
	km := m.keys
	rows := [][2]string{
		{km.PrevColumn + " / " + km.NextColumn, "previous / next column"},
		{km.PrevStory + " / " + km.NextStory, "previous / next story"},
		{km.MoveForward, "move story forward"},
		{km.MoveBack, "move story back"},
		{km.ViewStory, "story details"},
		{km.NewStory, "new story"},
		{km.EditStory, "edit story"},
		{km.AddComment, "comment on story"},
		{km.DeleteStory, "delete story"},
		{km.SaveForm, "save form"},
		{km.Search, "search"},
		{km.CycleTag, "cycle tag filter"},
		{"esc", "clear filters"},
		{km.Refresh, "refresh"},
		{km.Quit, "quit"},
	}
	var b strings.Builder
	b.WriteString(m.styles.ColumnTitle.Render("Keys") + "\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s\n", m.styles.Label.Render(fmt.Sprintf("%-8s", r[0])), r[1])
	}
	b.WriteString("\n" + m.styles.Subtle.Render("press any key to return"))
	return m.styles.Detail.Render(b.String())
}
