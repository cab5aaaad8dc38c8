package events

// EventPublisher is the write side of the bus. Services depend on this
// rather than on *Bus so tests can record events.
type EventPublisher interface {
	Publish(event Event) error
}

// Compile-time verification that *Bus implements EventPublisher
var _ EventPublisher = (*Bus)(nil)
