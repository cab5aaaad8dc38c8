package models

import (
	"fmt"
	"strings"
)

// Status is a workflow stage. The set is fixed and ordered.
type Status string

const (
	StatusIdea       Status = "idea"
	StatusRefinement Status = "refinement"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

var statusOrder = []Status{
	StatusIdea,
	StatusRefinement,
	StatusReady,
	StatusInProgress,
	StatusReview,
	StatusDone,
}

var statusTitles = map[Status]string{
	StatusIdea:       "Idea",
	StatusRefinement: "Refinement",
	StatusReady:      "Ready",
	StatusInProgress: "In Progress",
	StatusReview:     "Review",
	StatusDone:       "Done",
}

// Statuses returns the workflow statuses in board order
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// ParseStatus accepts the wire name ("in_progress") or the display title ("In Progress")
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, st := range statusOrder {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Index returns the position of the status in the workflow, or -1 if unknown
func (s Status) Index() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the fixed statuses
func (s Status) Valid() bool {
	return s.Index() >= 0
}

// Title is the human-readable column name
func (s Status) Title() string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return string(s)
}

// Next returns the following status, false when s is the last one
func (s Status) Next() (Status, bool) {
	i := s.Index()
	if i < 0 || i == len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[i+1], true
}

// Prev returns the preceding status, false when s is the first one
func (s Status) Prev() (Status, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return statusOrder[i-1], true
}

// Before reports whether s comes earlier in the workflow than other
func (s Status) Before(other Status) bool {
	return s.Index() < other.Index()
}
