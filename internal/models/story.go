package models

import "time"

// Story represents a single idea on the board
type Story struct {
	ID                 int        `json:"id"`
	BoardID            int        `json:"board_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             Status     `json:"status"`
	Assignees          []string   `json:"assignees"`
	Tags               []string   `json:"tags"`
	AcceptanceCriteria []string   `json:"acceptance_criteria"`
	BusinessValue      *int       `json:"business_value"` // 1-100, nil when not yet assessed
	StoryPoints        *int       `json:"story_points"`   // Fibonacci-restricted, nil when not estimated
	MoSCoW             MoSCoW     `json:"moscow"`
	DependsOn          []int      `json:"depends_on"` // Stories this story waits on
	Blocks             []int      `json:"blocks"`     // Stories waiting on this story
	Checklist          Checklist  `json:"checklist"`
	Activity           []Activity `json:"activity,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// GetID satisfies the quiet-mode output contract of the CLI formatter
func (s *Story) GetID() int {
	return s.ID
}

// HasTag reports whether the story carries the given tag
func (s *Story) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAssignee reports whether name is assigned to the story
func (s *Story) HasAssignee(name string) bool {
	for _, a := range s.Assignees {
		if a == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can snapshot state before mutating it
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	c := *s
	c.Assignees = append([]string(nil), s.Assignees...)
	c.Tags = append([]string(nil), s.Tags...)
	c.AcceptanceCriteria = append([]string(nil), s.AcceptanceCriteria...)
	c.DependsOn = append([]int(nil), s.DependsOn...)
	c.Blocks = append([]int(nil), s.Blocks...)
	c.Activity = append([]Activity(nil), s.Activity...)
	if s.BusinessValue != nil {
		v := *s.BusinessValue
		c.BusinessValue = &v
	}
	if s.StoryPoints != nil {
		v := *s.StoryPoints
		c.StoryPoints = &v
	}
	return &c
}

// Checklist holds the boolean flags that gate workflow transitions
type Checklist struct {
	ProblemValidated bool `json:"problem_validated"`
	CriteriaAgreed   bool `json:"criteria_agreed"`
	DevComplete      bool `json:"dev_complete"`
	QAPassed         bool `json:"qa_passed"`
}
