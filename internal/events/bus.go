package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Bus is an in-process fan-out of board events. Each subscriber owns a
// buffered channel; a subscriber that falls behind loses events rather
// than blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	buffer int
	closed bool

	sequence  atomic.Int64
	published atomic.Int64
	dropped   atomic.Int64
}

type subscriber struct {
	boardID int // 0 = all boards
	ch      chan Event
}

// Stats is a point-in-time view of bus counters.
type Stats struct {
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
	Subscribers int   `json:"subscribers"`
}

// NewBus creates a bus whose subscribers buffer up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[int]*subscriber),
		buffer: buffer,
	}
}

// Publish stamps the event with the next sequence id and delivers it to
// every subscriber of its board and every all-boards subscriber.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	event.SequenceID = b.sequence.Add(1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.published.Add(1)

	for id, sub := range b.subs {
		if sub.boardID != 0 && sub.boardID != event.BoardID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			slog.Warn("dropping event for slow subscriber",
				"subscriber", id,
				"board_id", event.BoardID,
				"sequence_id", event.SequenceID)
		}
	}
	return nil
}

// Subscribe returns a channel of events for boardID (0 for all boards) and
// a cancel func that unsubscribes and closes the channel. Cancel is idempotent.
func (b *Bus) Subscribe(boardID int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{boardID: boardID, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Close closes every subscriber channel. Later publishes fail with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Stats returns the current counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
		Subscribers: n,
	}
}
