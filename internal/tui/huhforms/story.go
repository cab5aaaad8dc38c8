// Package huhforms builds the huh forms of the board: story create/edit
// and comments. Forms write into pointers held by the caller.
package huhforms

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"charm.land/huh/v2"

	"github.com/thenoetrevino/storyboard/internal/models"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
	"github.com/thenoetrevino/storyboard/internal/workflow"
)

// StoryDraft holds the form values of one story. Numbers stay strings
// until the draft is turned into a request; "" means unset.
type StoryDraft struct {
	Status        models.Status
	Title         string
	Description   string
	Tags          []string
	BusinessValue string
	MoSCoW        models.MoSCoW
	Criteria      string // one criterion per line
	StoryPoints   string
	Assignees     []string

	ProblemValidated bool
	CriteriaAgreed   bool
	DevComplete      bool
	QAPassed         bool

	Confirm bool

	original *models.Story
}

// NewDraft returns an empty draft for a story that does not exist yet
func NewDraft() *StoryDraft {
	return &StoryDraft{Status: models.StatusIdea, Confirm: true}
}

// DraftFrom fills a draft with the current values of s
func DraftFrom(s *models.Story) *StoryDraft {
	d := &StoryDraft{
		Status:           s.Status,
		Title:            s.Title,
		Description:      s.Description,
		Tags:             slices.Clone(s.Tags),
		MoSCoW:           s.MoSCoW,
		Criteria:         strings.Join(s.AcceptanceCriteria, "\n"),
		Assignees:        slices.Clone(s.Assignees),
		ProblemValidated: s.Checklist.ProblemValidated,
		CriteriaAgreed:   s.Checklist.CriteriaAgreed,
		DevComplete:      s.Checklist.DevComplete,
		QAPassed:         s.Checklist.QAPassed,
		Confirm:          true,
		original:         s.Clone(),
	}
	if s.BusinessValue != nil {
		d.BusinessValue = strconv.Itoa(*s.BusinessValue)
	}
	if s.StoryPoints != nil {
		d.StoryPoints = strconv.Itoa(*s.StoryPoints)
	}
	return d
}

// IsNew reports whether the draft creates a story
func (d *StoryDraft) IsNew() bool {
	return d.original == nil
}

// StoryID returns the id of the edited story, 0 for a new one
func (d *StoryDraft) StoryID() int {
	if d.original == nil {
		return 0
	}
	return d.original.ID
}

// Fields lists what the form offers: every field editable in the draft's
// status, in form order. Dependencies are edited with their own command.
func (d *StoryDraft) Fields() []workflow.Field {
	var out []workflow.Field
	for _, f := range workflow.VisibleFields(d.Status) {
		if f == workflow.FieldDependencies {
			continue
		}
		if workflow.AccessFor(d.Status, f) == workflow.Editable {
			out = append(out, f)
		}
	}
	return out
}

// CreateRequest turns a new-story draft into a create request
func (d *StoryDraft) CreateRequest() (storyservice.CreateStoryRequest, error) {
	req := storyservice.CreateStoryRequest{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
	}
	for _, f := range d.Fields() {
		switch f {
		case workflow.FieldTags:
			req.Tags = slices.Clone(d.Tags)
		case workflow.FieldAssignees:
			req.Assignees = slices.Clone(d.Assignees)
		case workflow.FieldAcceptanceCriteria:
			req.AcceptanceCriteria = splitCriteria(d.Criteria)
		case workflow.FieldBusinessValue:
			v, err := parseBusinessValue(d.BusinessValue)
			if err != nil {
				return req, err
			}
			req.BusinessValue = v
		case workflow.FieldStoryPoints:
			v, err := parseStoryPoints(d.StoryPoints)
			if err != nil {
				return req, err
			}
			req.StoryPoints = v
		case workflow.FieldMoSCoW:
			req.MoSCoW = d.MoSCoW
		case workflow.FieldProblemValidated:
			req.ProblemValidated = d.ProblemValidated
		}
	}
	return req, nil
}

// UpdateRequest turns an edit draft into a partial update carrying only
// the fields that changed
func (d *StoryDraft) UpdateRequest() (storyservice.UpdateStoryRequest, error) {
	orig := d.original
	req := storyservice.UpdateStoryRequest{StoryID: d.StoryID()}
	if orig == nil {
		return req, errors.New("draft has no story to update")
	}

	for _, f := range d.Fields() {
		switch f {
		case workflow.FieldTitle:
			if t := strings.TrimSpace(d.Title); t != orig.Title {
				req.Title = &t
			}
		case workflow.FieldDescription:
			if desc := strings.TrimSpace(d.Description); desc != orig.Description {
				req.Description = &desc
			}
		case workflow.FieldTags:
			if !sameSet(d.Tags, orig.Tags) {
				tags := slices.Clone(d.Tags)
				req.Tags = &tags
			}
		case workflow.FieldAssignees:
			if !sameSet(d.Assignees, orig.Assignees) {
				names := slices.Clone(d.Assignees)
				req.Assignees = &names
			}
		case workflow.FieldAcceptanceCriteria:
			if criteria := splitCriteria(d.Criteria); !slices.Equal(criteria, orig.AcceptanceCriteria) {
				req.AcceptanceCriteria = &criteria
			}
		case workflow.FieldBusinessValue:
			v, err := parseBusinessValue(d.BusinessValue)
			if err != nil {
				return req, err
			}
			switch {
			case v == nil && orig.BusinessValue != nil:
				req.ClearBusinessValue = true
			case v != nil && (orig.BusinessValue == nil || *v != *orig.BusinessValue):
				req.BusinessValue = v
			}
		case workflow.FieldStoryPoints:
			v, err := parseStoryPoints(d.StoryPoints)
			if err != nil {
				return req, err
			}
			switch {
			case v == nil && orig.StoryPoints != nil:
				req.ClearStoryPoints = true
			case v != nil && (orig.StoryPoints == nil || *v != *orig.StoryPoints):
				req.StoryPoints = v
			}
		case workflow.FieldMoSCoW:
			if d.MoSCoW != orig.MoSCoW {
				m := d.MoSCoW
				req.MoSCoW = &m
			}
		case workflow.FieldProblemValidated:
			req.ProblemValidated = changedFlag(d.ProblemValidated, orig.Checklist.ProblemValidated)
		case workflow.FieldCriteriaAgreed:
			req.CriteriaAgreed = changedFlag(d.CriteriaAgreed, orig.Checklist.CriteriaAgreed)
		case workflow.FieldDevComplete:
			req.DevComplete = changedFlag(d.DevComplete, orig.Checklist.DevComplete)
		case workflow.FieldQAPassed:
			req.QAPassed = changedFlag(d.QAPassed, orig.Checklist.QAPassed)
		}
	}
	return req, nil
}

// StoryForm builds the create or edit form of a draft. members are the
// names offered as assignees.
func StoryForm(d *StoryDraft, members []string) *huh.Form {
	var fields []huh.Field
	for _, f := range d.Fields() {
		if field := d.field(f, members); field != nil {
			fields = append(fields, field)
		}
	}

	submit := "Save changes?"
	if d.IsNew() {
		submit = "Create this story?"
	}
	fields = append(fields,
		huh.NewConfirm().
			Key("confirm").
			Title(submit).
			Affirmative("Yes").
			Negative("No").
			Value(&d.Confirm),
	)

	form := huh.NewForm(huh.NewGroup(fields...))
	return form.WithKeyMap(KeyMap()).WithShowHelp(false)
}

func (d *StoryDraft) field(f workflow.Field, members []string) huh.Field {
	switch f {
	case workflow.FieldTitle:
		return huh.NewInput().
			Key("title").
			Title("Title").
			Placeholder("What should the story deliver?").
			CharLimit(models.MaxTitleLength).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}).
			Value(&d.Title)

	case workflow.FieldDescription:
		return huh.NewText().
			Key("description").
			Title("Description").
			Placeholder("Problem and context...").
			CharLimit(5000).
			Lines(4).
			Value(&d.Description)

	case workflow.FieldTags:
		opts := make([]huh.Option[string], len(models.TagVocabulary))
		for i, t := range models.TagVocabulary {
			opts[i] = huh.NewOption(t.Name, t.Name)
		}
		return huh.NewMultiSelect[string]().
			Key("tags").
			Title("Tags").
			Description("Space to toggle").
			Options(opts...).
			Value(&d.Tags)

	case workflow.FieldBusinessValue:
		return huh.NewInput().
			Key("business_value").
			Title("Business value").
			Placeholder(fmt.Sprintf("%d-%d, empty for unset", models.MinBusinessValue, models.MaxBusinessValue)).
			Validate(func(s string) error {
				_, err := parseBusinessValue(s)
				return err
			}).
			Value(&d.BusinessValue)

	case workflow.FieldMoSCoW:
		opts := []huh.Option[models.MoSCoW]{huh.NewOption("Unprioritised", models.MoSCoWNone)}
		for _, m := range []models.MoSCoW{models.MoSCoWMust, models.MoSCoWShould, models.MoSCoWCould, models.MoSCoWWont} {
			opts = append(opts, huh.NewOption(m.Label(), m))
		}
		return huh.NewSelect[models.MoSCoW]().
			Key("moscow").
			Title("MoSCoW").
			Options(opts...).
			Value(&d.MoSCoW)

	case workflow.FieldAcceptanceCriteria:
		return huh.NewText().
			Key("acceptance_criteria").
			Title("Acceptance criteria").
			Description(fmt.Sprintf("One per line, at most %d", models.MaxAcceptanceCriteria)).
			Lines(models.MaxAcceptanceCriteria).
			Validate(func(s string) error {
				if len(splitCriteria(s)) > models.MaxAcceptanceCriteria {
					return fmt.Errorf("at most %d criteria", models.MaxAcceptanceCriteria)
				}
				return nil
			}).
			Value(&d.Criteria)

	case workflow.FieldStoryPoints:
		opts := []huh.Option[string]{huh.NewOption("Not estimated", "")}
		for _, p := range models.StoryPointScale {
			opts = append(opts, huh.NewOption(strconv.Itoa(p), strconv.Itoa(p)))
		}
		return huh.NewSelect[string]().
			Key("story_points").
			Title("Story points").
			Options(opts...).
			Value(&d.StoryPoints)

	case workflow.FieldAssignees:
		names := slices.Clone(members)
		for _, a := range d.Assignees {
			if !slices.Contains(names, a) {
				names = append(names, a)
			}
		}
		if len(names) == 0 {
			return huh.NewNote().
				Title("Assignees").
				Description("This board has no members yet")
		}
		opts := make([]huh.Option[string], len(names))
		for i, n := range names {
			opts[i] = huh.NewOption(n, n)
		}
		return huh.NewMultiSelect[string]().
			Key("assignees").
			Title("Assignees").
			Options(opts...).
			Value(&d.Assignees).
			Filterable(true)

	case workflow.FieldProblemValidated:
		return checklist("problem_validated", "Problem validated?", &d.ProblemValidated)
	case workflow.FieldCriteriaAgreed:
		return checklist("criteria_agreed", "Acceptance criteria agreed?", &d.CriteriaAgreed)
	case workflow.FieldDevComplete:
		return checklist("dev_complete", "Development complete?", &d.DevComplete)
	case workflow.FieldQAPassed:
		return checklist("qa_passed", "QA passed?", &d.QAPassed)
	}
	return nil
}

func checklist(key, title string, v *bool) huh.Field {
	return huh.NewConfirm().
		Key(key).
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(v)
}

// CommentForm builds the form for a new activity entry
func CommentForm(message *string) *huh.Form {
	fields := []huh.Field{
		huh.NewText().
			Key("message").
			Title("New comment").
			Placeholder("Enter comment text...").
			CharLimit(models.MaxCommentLength).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("comment is empty")
				}
				if utf8.RuneCountInString(s) > models.MaxCommentLength {
					return fmt.Errorf("at most %d characters", models.MaxCommentLength)
				}
				return nil
			}).
			Value(message),
	}
	form := huh.NewForm(huh.NewGroup(fields...))
	return form.WithKeyMap(KeyMap()).WithShowHelp(false)
}

func parseBusinessValue(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || !models.ValidBusinessValue(v) {
		return nil, fmt.Errorf("business value must be %d-%d", models.MinBusinessValue, models.MaxBusinessValue)
	}
	return &v, nil
}

func parseStoryPoints(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || !models.ValidStoryPoints(v) {
		return nil, fmt.Errorf("story points must be one of %v", models.StoryPointScale)
	}
	return &v, nil
}

func splitCriteria(s string) []string {
	var out []string
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

func changedFlag(v, orig bool) *bool {
	if v == orig {
		return nil
	}
	return &v
}
