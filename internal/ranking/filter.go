package ranking

import (
	"strings"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// Query narrows a story list. Zero-valued fields do not filter.
type Query struct {
	Tags     []string      `json:"tags,omitempty"` // any-of
	Assignee string        `json:"assignee,omitempty"`
	MoSCoW   models.MoSCoW `json:"moscow,omitempty"`
	Status   models.Status `json:"status,omitempty"`
	Text     string        `json:"q,omitempty"`
	Sort     SortKey       `json:"sort,omitempty"`
}

// IsZero reports whether the query filters nothing
func (q Query) IsZero() bool {
	return len(q.Tags) == 0 && q.Assignee == "" && q.MoSCoW == "" && q.Status == "" && q.Text == ""
}

// Matches reports whether a single story passes every filter in q
func (q Query) Matches(s *models.Story) bool {
	if len(q.Tags) > 0 {
		found := false
		for _, t := range q.Tags {
			if s.HasTag(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Assignee != "" && !s.HasAssignee(q.Assignee) {
		return false
	}
	if q.MoSCoW != "" && s.MoSCoW != q.MoSCoW {
		return false
	}
	if q.Status != "" && s.Status != q.Status {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		haystack := strings.ToLower(s.Title + "\n" + s.Description)
		if !strings.Contains(haystack, text) {
			return false
		}
	}
	return true
}

// Filter returns the stories matching q, ordered by q.Sort
func Filter(stories []*models.Story, q Query) []*models.Story {
	var out []*models.Story
	for _, s := range stories {
		if q.Matches(s) {
			out = append(out, s)
		}
	}
	key := q.Sort
	if key == "" {
		key = SortRank
	}
	return Sort(out, key)
}
