package events

import (
	"log/slog"
	"time"
)

// Notify publishes an event if a publisher is configured.
// Failures are logged, not returned: live updates must never fail a write.
func Notify(pub EventPublisher, event Event) {
	if pub == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := pub.Publish(event); err != nil {
		slog.Warn("event publish failed",
			"event_type", event.Type,
			"board_id", event.BoardID,
			"story_id", event.StoryID,
			"error", err)
	}
}
