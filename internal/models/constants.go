package models

// ============================================================================
// ESTIMATION CONSTANTS
// ============================================================================

// StoryPointScale is the Fibonacci-restricted set of allowed estimates
var StoryPointScale = []int{0, 1, 2, 3, 5, 8, 13, 21}

// Business value bounds (inclusive)
const (
	MinBusinessValue = 1
	MaxBusinessValue = 100
)

// ============================================================================
// STORY LIMITS
// ============================================================================

const (
	// MaxAcceptanceCriteria is the number of criteria a story can carry
	MaxAcceptanceCriteria = 5

	// MaxTitleLength is the longest accepted story title
	MaxTitleLength = 255

	// MaxCommentLength is the longest accepted activity message
	MaxCommentLength = 1000
)

// ============================================================================
// ACTIVITY KINDS
// ============================================================================

// ActivityKind distinguishes user comments from system-generated entries
type ActivityKind string

const (
	ActivityComment ActivityKind = "comment"
	ActivityStatus  ActivityKind = "status"
	ActivityEdit    ActivityKind = "edit"
)

// ValidStoryPoints reports whether p is on the estimation scale
func ValidStoryPoints(p int) bool {
	for _, v := range StoryPointScale {
		if v == p {
			return true
		}
	}
	return false
}

// ValidBusinessValue reports whether v is inside the business value range
func ValidBusinessValue(v int) bool {
	return v >= MinBusinessValue && v <= MaxBusinessValue
}
