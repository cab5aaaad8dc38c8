package ranking

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// SortKey selects the ordering applied to a story list
type SortKey string

const (
	SortRank    SortKey = "rank"
	SortValue   SortKey = "value"
	SortPoints  SortKey = "points"
	SortCreated SortKey = "created"
	SortTitle   SortKey = "title"
)

// ParseSortKey validates a user-supplied sort key; empty means rank
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortRank, nil
	case SortRank, SortValue, SortPoints, SortCreated, SortTitle:
		return k, nil
	}
	return "", fmt.Errorf("invalid sort key %q (must be: rank, value, points, created, title)", s)
}

// Rank returns a new slice ordered by MoSCoW bucket, then MVP score (desc),
// business value (desc, unset last), creation time and id. The input is not modified.
func Rank(stories []*models.Story) []*models.Story {
	return Sort(stories, SortRank)
}

// Sort returns a new slice ordered by key. Every key falls back to the
// rank order so results are deterministic.
func Sort(stories []*models.Story, key SortKey) []*models.Story {
	out := slices.Clone(stories)
	slices.SortStableFunc(out, func(a, b *models.Story) int {
		if c := compareKey(a, b, key); c != 0 {
			return c
		}
		return compareRank(a, b)
	})
	return out
}

func compareKey(a, b *models.Story, key SortKey) int {
	switch key {
	case SortValue:
		return compareOptionalDesc(a.BusinessValue, b.BusinessValue)
	case SortPoints:
		// Smallest estimate first, unestimated last
		return compareOptionalAsc(a.StoryPoints, b.StoryPoints)
	case SortCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return 0
	}
}

func compareRank(a, b *models.Story) int {
	if c := a.MoSCoW.Rank() - b.MoSCoW.Rank(); c != 0 {
		return c
	}
	sa, sb := MVPScore(a), MVPScore(b)
	if sa != sb {
		if sa > sb {
			return -1
		}
		return 1
	}
	if c := compareOptionalDesc(a.BusinessValue, b.BusinessValue); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return a.ID - b.ID
}

// compareOptionalDesc orders larger values first and nil last
func compareOptionalDesc(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return *b - *a
}

// compareOptionalAsc orders smaller values first and nil last
func compareOptionalAsc(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return *a - *b
}

// Column is one status lane of the board
type Column struct {
	Status  models.Status   `json:"status"`
	Title   string          `json:"title"`
	Stories []*models.Story `json:"stories"`
}

// Columns groups stories by status in workflow order, ranking each lane
func Columns(stories []*models.Story) []Column {
	byStatus := make(map[models.Status][]*models.Story)
	for _, s := range stories {
		byStatus[s.Status] = append(byStatus[s.Status], s)
	}
	cols := make([]Column, 0, len(models.Statuses()))
	for _, st := range models.Statuses() {
		cols = append(cols, Column{
			Status:  st,
			Title:   st.Title(),
			Stories: Rank(byStatus[st]),
		})
	}
	return cols
}
