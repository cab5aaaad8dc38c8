// Package workflow holds the rules that govern how stories move through
// the fixed status sequence and which fields are editable at each stage.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thenoetrevino/storyboard/internal/models"
)

var (
	// ErrTransitionBlocked indicates that one or more gates are not satisfied
	ErrTransitionBlocked = errors.New("transition blocked")

	// ErrSameStatus indicates a move to the status the story is already in
	ErrSameStatus = errors.New("story is already in target status")

	// ErrFieldLocked indicates an edit to a field that is not editable in the current status
	ErrFieldLocked = errors.New("field is not editable in current status")
)

// Requirement is a single unmet condition reported by a gate
type Requirement struct {
	Gate    models.Status `json:"gate"`
	Message string        `json:"message"`
}

// GateError lists every requirement that blocked a forward move
type GateError struct {
	From  models.Status
	To    models.Status
	Unmet []Requirement
}

func (e *GateError) Error() string {
	msgs := make([]string, len(e.Unmet))
	for i, r := range e.Unmet {
		msgs[i] = r.Message
	}
	return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, strings.Join(msgs, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrTransitionBlocked)
func (e *GateError) Unwrap() error {
	return ErrTransitionBlocked
}

// DependencyStatus resolves the current status of a story id.
// Unknown ids report ok=false.
type DependencyStatus func(storyID int) (models.Status, bool)

// gate describes what a story must satisfy to enter a status
type gate struct {
	into  models.Status
	check func(s *models.Story, deps DependencyStatus) []string
}

var gates = []gate{
	{
		into: models.StatusRefinement,
		check: func(s *models.Story, _ DependencyStatus) []string {
			var unmet []string
			if !s.Checklist.ProblemValidated {
				unmet = append(unmet, "problem has not been validated")
			}
			return unmet
		},
	},
	{
		into: models.StatusReady,
		check: func(s *models.Story, _ DependencyStatus) []string {
			var unmet []string
			if !s.Checklist.CriteriaAgreed {
				unmet = append(unmet, "acceptance criteria have not been agreed")
			}
			if len(s.AcceptanceCriteria) == 0 {
				unmet = append(unmet, "at least one acceptance criterion is required")
			}
			if s.StoryPoints == nil {
				unmet = append(unmet, "story is not estimated")
			}
			if s.MoSCoW == models.MoSCoWNone {
				unmet = append(unmet, "MoSCoW priority is not set")
			}
			if s.BusinessValue == nil {
				unmet = append(unmet, "business value is not set")
			}
			return unmet
		},
	},
	{
		into: models.StatusInProgress,
		check: func(s *models.Story, deps DependencyStatus) []string {
			var unmet []string
			if len(s.Assignees) == 0 {
				unmet = append(unmet, "no one is assigned")
			}
			for _, id := range s.DependsOn {
				st, ok := models.Status(""), false
				if deps != nil {
					st, ok = deps(id)
				}
				if !ok {
					unmet = append(unmet, fmt.Sprintf("dependency #%d cannot be resolved", id))
					continue
				}
				if st != models.StatusDone {
					unmet = append(unmet, fmt.Sprintf("dependency #%d is not done (%s)", id, st))
				}
			}
			return unmet
		},
	},
	{
		into: models.StatusReview,
		check: func(s *models.Story, _ DependencyStatus) []string {
			if !s.Checklist.DevComplete {
				return []string{"development is not marked complete"}
			}
			return nil
		},
	},
	{
		into: models.StatusDone,
		check: func(s *models.Story, _ DependencyStatus) []string {
			if !s.Checklist.QAPassed {
				return []string{"QA has not passed"}
			}
			return nil
		},
	},
}

// CheckTransition validates moving story s to target.
// Backward moves always pass. Forward moves must satisfy every gate between
// the current status (exclusive) and target (inclusive).
func CheckTransition(s *models.Story, target models.Status, deps DependencyStatus) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, target)
	}
	if s.Status == target {
		return ErrSameStatus
	}
	if target.Before(s.Status) {
		return nil
	}

	var unmet []Requirement
	for _, g := range gates {
		if !s.Status.Before(g.into) || target.Before(g.into) {
			continue
		}
		for _, msg := range g.check(s, deps) {
			unmet = append(unmet, Requirement{Gate: g.into, Message: msg})
		}
	}

	if len(unmet) > 0 {
		return &GateError{From: s.Status, To: target, Unmet: unmet}
	}
	return nil
}

// ResetChecklist clears the flags whose gate leads into a status after target.
// Called on backward moves so a story has to re-earn later transitions.
func ResetChecklist(c models.Checklist, target models.Status) models.Checklist {
	if target.Before(models.StatusRefinement) {
		c.ProblemValidated = false
	}
	if target.Before(models.StatusReady) {
		c.CriteriaAgreed = false
	}
	if target.Before(models.StatusReview) {
		c.DevComplete = false
	}
	if target.Before(models.StatusDone) {
		c.QAPassed = false
	}
	return c
}
