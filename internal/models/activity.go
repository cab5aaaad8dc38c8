package models

import "time"

// Activity is one entry of a story's comment/activity log
type Activity struct {
	ID        int          `json:"id"`
	StoryID   int          `json:"story_id"`
	Kind      ActivityKind `json:"kind"`
	Author    string       `json:"author"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

// GetID satisfies the quiet-mode output contract of the CLI formatter
func (a *Activity) GetID() int {
	return a.ID
}
