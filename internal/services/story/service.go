package story

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// Service defines all story-related business operations
type Service interface {
	// Read operations
	GetStory(ctx context.Context, storyID int) (*models.Story, error)
	ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error)
	ListActivity(ctx context.Context, storyID int) ([]*models.Activity, error)
	FieldAccess(ctx context.Context, storyID int) (map[workflow.Field]workflow.Access, error)

	// Write operations
	CreateStory(ctx context.Context, req CreateStoryRequest) (*models.Story, error)
	UpdateStory(ctx context.Context, req UpdateStoryRequest) (*models.Story, error)
	MoveStory(ctx context.Context, req MoveStoryRequest) (*models.Story, error)
	DeleteStory(ctx context.Context, storyID int) error
	AddComment(ctx context.Context, req CommentRequest) (*models.Activity, error)

	// Dependencies
	AddDependency(ctx context.Context, storyID, dependsOnID int) error
	RemoveDependency(ctx context.Context, storyID, dependsOnID int) error
}

// CreateStoryRequest encapsulates all data needed to create a story.
// New stories start in the first status, so only fields editable there
// may be set.
type CreateStoryRequest struct {
	BoardID            int           `json:"-"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Tags               []string      `json:"tags,omitempty"`
	Assignees          []string      `json:"assignees,omitempty"`
	AcceptanceCriteria []string      `json:"acceptance_criteria,omitempty"`
	BusinessValue      *int          `json:"business_value,omitempty"`
	StoryPoints        *int          `json:"story_points,omitempty"`
	MoSCoW             models.MoSCoW `json:"moscow,omitempty"`
	ProblemValidated   bool          `json:"problem_validated,omitempty"`
	Author             string        `json:"author,omitempty"`
}

// UpdateStoryRequest encapsulates a partial story update.
// Fields with pointers are optional - nil means don't update.
type UpdateStoryRequest struct {
	StoryID            int            `json:"-"`
	Title              *string        `json:"title,omitempty"`
	Description        *string        `json:"description,omitempty"`
	Tags               *[]string      `json:"tags,omitempty"`
	Assignees          *[]string      `json:"assignees,omitempty"`
	AcceptanceCriteria *[]string      `json:"acceptance_criteria,omitempty"`
	BusinessValue      *int           `json:"business_value,omitempty"`
	ClearBusinessValue bool           `json:"clear_business_value,omitempty"`
	StoryPoints        *int           `json:"story_points,omitempty"`
	ClearStoryPoints   bool           `json:"clear_story_points,omitempty"`
	MoSCoW             *models.MoSCoW `json:"moscow,omitempty"`
	ProblemValidated   *bool          `json:"problem_validated,omitempty"`
	CriteriaAgreed     *bool          `json:"criteria_agreed,omitempty"`
	DevComplete        *bool          `json:"dev_complete,omitempty"`
	QAPassed           *bool          `json:"qa_passed,omitempty"`
	Author             string         `json:"author,omitempty"`
}

// MoveStoryRequest moves a story to another workflow status
type MoveStoryRequest struct {
	StoryID int           `json:"-"`
	Status  models.Status `json:"status"`
	Author  string        `json:"author,omitempty"`
}

// CommentRequest adds a comment to a story's activity log
type CommentRequest struct {
	StoryID int    `json:"-"`
	Author  string `json:"author"`
	Message string `json:"message"`
}

// service implements Service interface
type service struct {
	repo        database.DataStore
	eventClient events.EventPublisher
}

// NewService creates a new story service. eventClient may be nil.
func NewService(repo database.DataStore, eventClient events.EventPublisher) Service {
	return &service{
		repo:        repo,
		eventClient: eventClient,
	}
}

// GetStory returns a story with its activity log
func (s *service) GetStory(ctx context.Context, storyID int) (*models.Story, error) {
	st, err := s.load(ctx, storyID)
	if err != nil {
		return nil, err
	}
	activity, err := s.repo.GetActivity(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	st.Activity = make([]models.Activity, len(activity))
	for i, a := range activity {
		st.Activity[i] = *a
	}
	return st, nil
}

// ListStories returns the board's stories matching q, ranked
func (s *service) ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error) {
	if err := s.requireBoard(ctx, boardID); err != nil {
		return nil, err
	}
	stories, err := s.repo.GetStoriesByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	out := ranking.Filter(stories, q)
	if out == nil {
		out = []*models.Story{}
	}
	return out, nil
}

// ListActivity returns a story's comment and activity log, oldest first
func (s *service) ListActivity(ctx context.Context, storyID int) ([]*models.Activity, error) {
	if _, err := s.load(ctx, storyID); err != nil {
		return nil, err
	}
	return s.repo.GetActivity(ctx, storyID)
}

// FieldAccess returns the visibility of every field in the story's current status
func (s *service) FieldAccess(ctx context.Context, storyID int) (map[workflow.Field]workflow.Access, error) {
	st, err := s.load(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return workflow.FieldAccess(st.Status), nil
}

// CreateStory validates and stores a new story in the first workflow status
func (s *service) CreateStory(ctx context.Context, req CreateStoryRequest) (*models.Story, error) {
	if req.BoardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if err := s.requireBoard(ctx, req.BoardID); err != nil {
		return nil, err
	}

	draft := &models.Story{
		BoardID:       req.BoardID,
		Status:        models.StatusIdea,
		Description:   strings.TrimSpace(req.Description),
		BusinessValue: req.BusinessValue,
		StoryPoints:   req.StoryPoints,
		Checklist:     models.Checklist{ProblemValidated: req.ProblemValidated},
	}

	var err error
	if draft.Title, err = validateTitle(req.Title); err != nil {
		return nil, err
	}
	if draft.Tags, err = normalizeTags(req.Tags); err != nil {
		return nil, err
	}
	if draft.Assignees, err = s.normalizeAssignees(ctx, req.BoardID, req.Assignees); err != nil {
		return nil, err
	}
	if draft.AcceptanceCriteria, err = normalizeCriteria(req.AcceptanceCriteria); err != nil {
		return nil, err
	}
	if err := validateEstimates(req.BusinessValue, req.StoryPoints); err != nil {
		return nil, err
	}
	if draft.MoSCoW, err = models.ParseMoSCoW(string(req.MoSCoW)); err != nil {
		return nil, err
	}

	var set []workflow.Field
	if draft.Description != "" {
		set = append(set, workflow.FieldDescription)
	}
	if len(draft.Tags) > 0 {
		set = append(set, workflow.FieldTags)
	}
	if len(draft.Assignees) > 0 {
		set = append(set, workflow.FieldAssignees)
	}
	if len(draft.AcceptanceCriteria) > 0 {
		set = append(set, workflow.FieldAcceptanceCriteria)
	}
	if draft.BusinessValue != nil {
		set = append(set, workflow.FieldBusinessValue)
	}
	if draft.StoryPoints != nil {
		set = append(set, workflow.FieldStoryPoints)
	}
	if draft.MoSCoW != models.MoSCoWNone {
		set = append(set, workflow.FieldMoSCoW)
	}
	if draft.Checklist.ProblemValidated {
		set = append(set, workflow.FieldProblemValidated)
	}
	if err := workflow.RequireEditable(draft.Status, set...); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateStory(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	if _, err := s.repo.AddActivity(ctx, created.ID, models.ActivityEdit, req.Author, "created story"); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	s.publish(events.EventStoryCreated, created)
	return created, nil
}

// UpdateStory applies a partial update. Only fields whose value actually
// changes are checked against the story's current field access.
func (s *service) UpdateStory(ctx context.Context, req UpdateStoryRequest) (*models.Story, error) {
	current, err := s.load(ctx, req.StoryID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	var changed []workflow.Field

	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		if title != current.Title {
			next.Title = title
			changed = append(changed, workflow.FieldTitle)
		}
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != current.Description {
			next.Description = d
			changed = append(changed, workflow.FieldDescription)
		}
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(tags, current.Tags) {
			next.Tags = tags
			changed = append(changed, workflow.FieldTags)
		}
	}
	if req.Assignees != nil {
		assignees, err := s.normalizeAssignees(ctx, current.BoardID, *req.Assignees)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(assignees, current.Assignees) {
			next.Assignees = assignees
			changed = append(changed, workflow.FieldAssignees)
		}
	}
	if req.AcceptanceCriteria != nil {
		criteria, err := normalizeCriteria(*req.AcceptanceCriteria)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(criteria, current.AcceptanceCriteria) {
			next.AcceptanceCriteria = criteria
			changed = append(changed, workflow.FieldAcceptanceCriteria)
		}
	}

	bv := current.BusinessValue
	if req.ClearBusinessValue {
		bv = nil
	} else if req.BusinessValue != nil {
		bv = req.BusinessValue
	}
	sp := current.StoryPoints
	if req.ClearStoryPoints {
		sp = nil
	} else if req.StoryPoints != nil {
		sp = req.StoryPoints
	}
	if err := validateEstimates(bv, sp); err != nil {
		return nil, err
	}
	if !equalIntPtr(bv, current.BusinessValue) {
		next.BusinessValue = bv
		changed = append(changed, workflow.FieldBusinessValue)
	}
	if !equalIntPtr(sp, current.StoryPoints) {
		next.StoryPoints = sp
		changed = append(changed, workflow.FieldStoryPoints)
	}

	if req.MoSCoW != nil {
		m, err := models.ParseMoSCoW(string(*req.MoSCoW))
		if err != nil {
			return nil, err
		}
		if m != current.MoSCoW {
			next.MoSCoW = m
			changed = append(changed, workflow.FieldMoSCoW)
		}
	}

	flags := []struct {
		req   *bool
		field workflow.Field
		dst   *bool
	}{
		{req.ProblemValidated, workflow.FieldProblemValidated, &next.Checklist.ProblemValidated},
		{req.CriteriaAgreed, workflow.FieldCriteriaAgreed, &next.Checklist.CriteriaAgreed},
		{req.DevComplete, workflow.FieldDevComplete, &next.Checklist.DevComplete},
		{req.QAPassed, workflow.FieldQAPassed, &next.Checklist.QAPassed},
	}
	for _, f := range flags {
		if f.req != nil && *f.req != *f.dst {
			*f.dst = *f.req
			changed = append(changed, f.field)
		}
	}

	if len(changed) == 0 {
		return current, nil
	}
	if err := workflow.RequireEditable(current.Status, changed...); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStory(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", mapNotFound(err, ErrStoryNotFound))
	}
	if _, err := s.repo.AddActivity(ctx, next.ID, models.ActivityEdit, req.Author, describeChanges(changed)); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	updated, err := s.load(ctx, next.ID)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventStoryUpdated, updated)
	return updated, nil
}

// MoveStory changes the status of a story. Forward moves must pass every
// gate on the way; backward moves reset the checklist flags of later gates.
func (s *service) MoveStory(ctx context.Context, req MoveStoryRequest) (*models.Story, error) {
	current, err := s.load(ctx, req.StoryID)
	if err != nil {
		return nil, err
	}

	statuses, err := s.boardStatuses(ctx, current.BoardID)
	if err != nil {
		return nil, err
	}
	resolve := func(id int) (models.Status, bool) {
		st, ok := statuses[id]
		return st, ok
	}
	if err := workflow.CheckTransition(current, req.Status, resolve); err != nil {
		return nil, err
	}

	checklist := current.Checklist
	if req.Status.Before(current.Status) {
		checklist = workflow.ResetChecklist(checklist, req.Status)
	}
	if err := s.repo.UpdateStoryStatus(ctx, current.ID, req.Status, checklist); err != nil {
		return nil, fmt.Errorf("failed to move story: %w", mapNotFound(err, ErrStoryNotFound))
	}

	msg := fmt.Sprintf("moved from %s to %s", current.Status.Title(), req.Status.Title())
	if _, err := s.repo.AddActivity(ctx, current.ID, models.ActivityStatus, req.Author, msg); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	moved, err := s.load(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventStoryMoved, moved)
	return moved, nil
}

// DeleteStory removes a story and its dependency edges
func (s *service) DeleteStory(ctx context.Context, storyID int) error {
	current, err := s.load(ctx, storyID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteStory(ctx, storyID); err != nil {
		return mapNotFound(err, ErrStoryNotFound)
	}
	s.publish(events.EventStoryDeleted, current)
	return nil
}

// AddComment appends a comment. Comments are accepted in every status.
func (s *service) AddComment(ctx context.Context, req CommentRequest) (*models.Activity, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyCommentMessage
	}
	if utf8.RuneCountInString(msg) > models.MaxCommentLength {
		return nil, ErrCommentMessageTooLong
	}
	current, err := s.load(ctx, req.StoryID)
	if err != nil {
		return nil, err
	}

	a, err := s.repo.AddActivity(ctx, req.StoryID, models.ActivityComment, strings.TrimSpace(req.Author), msg)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	s.publish(events.EventStoryUpdated, current)
	return a, nil
}

// AddDependency records that storyID cannot start before dependsOnID is done
func (s *service) AddDependency(ctx context.Context, storyID, dependsOnID int) error {
	if storyID == dependsOnID {
		return ErrSelfDependency
	}
	current, err := s.load(ctx, storyID)
	if err != nil {
		return err
	}
	target, err := s.load(ctx, dependsOnID)
	if err != nil {
		return err
	}
	if current.BoardID != target.BoardID {
		return ErrCrossBoardDependency
	}
	if err := workflow.RequireEditable(current.Status, workflow.FieldDependencies); err != nil {
		return err
	}
	if slices.Contains(current.DependsOn, dependsOnID) {
		return ErrDuplicateDependency
	}

	graph, err := s.repo.GetDependencyGraph(ctx, current.BoardID)
	if err != nil {
		return fmt.Errorf("failed to load dependency graph: %w", err)
	}
	if reaches(graph, dependsOnID, storyID) {
		return ErrCircularDependency
	}

	if err := s.repo.AddDependency(ctx, storyID, dependsOnID); err != nil {
		return fmt.Errorf("failed to add dependency: %w", err)
	}
	s.publish(events.EventStoryUpdated, current)
	return nil
}

// RemoveDependency deletes a dependency edge
func (s *service) RemoveDependency(ctx context.Context, storyID, dependsOnID int) error {
	current, err := s.load(ctx, storyID)
	if err != nil {
		return err
	}
	if !slices.Contains(current.DependsOn, dependsOnID) {
		return ErrDependencyNotFound
	}
	if err := workflow.RequireEditable(current.Status, workflow.FieldDependencies); err != nil {
		return err
	}
	if err := s.repo.RemoveDependency(ctx, storyID, dependsOnID); err != nil {
		return mapNotFound(err, ErrDependencyNotFound)
	}
	s.publish(events.EventStoryUpdated, current)
	return nil
}

func (s *service) load(ctx context.Context, storyID int) (*models.Story, error) {
	if storyID <= 0 {
		return nil, ErrInvalidStoryID
	}
	st, err := s.repo.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, mapNotFound(err, ErrStoryNotFound)
	}
	return st, nil
}

func (s *service) requireBoard(ctx context.Context, boardID int) error {
	if boardID <= 0 {
		return ErrInvalidBoardID
	}
	if _, err := s.repo.GetBoardByID(ctx, boardID); err != nil {
		return mapNotFound(err, ErrBoardNotFound)
	}
	return nil
}

func (s *service) boardStatuses(ctx context.Context, boardID int) (map[int]models.Status, error) {
	stories, err := s.repo.GetStoriesByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board stories: %w", err)
	}
	out := make(map[int]models.Status, len(stories))
	for _, st := range stories {
		out[st.ID] = st.Status
	}
	return out, nil
}

func (s *service) normalizeAssignees(ctx context.Context, boardID int, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}
	members, err := s.repo.GetMembersByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.Name] = true
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !known[n] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAssignee, n)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *service) publish(t events.EventType, st *models.Story) {
	events.Notify(s.eventClient, events.Event{Type: t, BoardID: st.BoardID, StoryID: st.ID})
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func validateEstimates(bv, sp *int) error {
	if bv != nil && !models.ValidBusinessValue(*bv) {
		return ErrInvalidBusinessValue
	}
	if sp != nil && !models.ValidStoryPoints(*sp) {
		return ErrInvalidStoryPoints
	}
	return nil
}

// normalizeTags validates, dedupes and orders tags by the vocabulary
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		name, err := models.NormalizeTag(t)
		if err != nil {
			return nil, err
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for _, v := range models.TagVocabulary {
		if seen[v.Name] {
			out = append(out, v.Name)
		}
	}
	return out, nil
}

func normalizeCriteria(criteria []string) ([]string, error) {
	if len(criteria) > models.MaxAcceptanceCriteria {
		return nil, ErrTooManyCriteria
	}
	out := make([]string, 0, len(criteria))
	for _, c := range criteria {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, ErrEmptyCriterion
		}
		out = append(out, c)
	}
	return out, nil
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// reaches reports whether to is reachable from from along depends-on edges
func reaches(graph map[int][]int, from, to int) bool {
	seen := map[int]bool{}
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, graph[n]...)
	}
	return false
}

func describeChanges(fields []workflow.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ReplaceAll(string(f), "_", " ")
	}
	return "updated " + strings.Join(names, ", ")
}

func mapNotFound(err, sentinel error) error {
	if errors.Is(err, database.ErrNotFound) {
		return sentinel
	}
	return err
}
