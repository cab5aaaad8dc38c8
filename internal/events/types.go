package events

import "time"

// EventType indicates what kind of change occurred
type EventType string

const (
	EventStoryCreated EventType = "story_created"
	EventStoryUpdated EventType = "story_updated"
	EventStoryMoved   EventType = "story_moved"
	EventStoryDeleted EventType = "story_deleted"
	EventBoardChanged EventType = "board_changed"
	EventBoardDeleted EventType = "board_deleted"
)

// Event represents a change notification for one board
type Event struct {
	Type       EventType `json:"type"`
	BoardID    int       `json:"board_id"`           // For filtering - which board was modified
	StoryID    int       `json:"story_id,omitempty"` // Zero for board-level changes
	Timestamp  time.Time `json:"timestamp"`
	SequenceID int64     `json:"sequence_id"` // Monotonically increasing, assigned by the bus
}
