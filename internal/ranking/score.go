// Package ranking orders and filters stories for display and export
package ranking

import (
	"math"

	"github.com/thenoetrevino/storyboard/internal/models"
)

// MVPScore is business value per story point, rounded to two decimals.
// Unassessed or unestimated stories score 0. A zero-point story counts as one point.
func MVPScore(s *models.Story) float64 {
	if s == nil || s.BusinessValue == nil || s.StoryPoints == nil {
		return 0
	}
	points := *s.StoryPoints
	if points < 1 {
		points = 1
	}
	score := float64(*s.BusinessValue) / float64(points)
	return math.Round(score*100) / 100
}
