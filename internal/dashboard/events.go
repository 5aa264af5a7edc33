package dashboard

import (
	"sync"
	"time"

	"github.com/onnwee/school-dashboard/internal/metrics"
)

// EventType identifies one kind of dashboard event.
type EventType string

const (
	EventDataUpdated      EventType = "data_updated"
	EventDataError        EventType = "data_error"
	EventLoadingStarted   EventType = "loading_started"
	EventLoadingFinished  EventType = "loading_finished"
	EventCacheInvalidated EventType = "cache_invalidated"
)

// Event is one notification fanned out to subscribers. Value is set for
// data_updated, Message for data_error.
type Event struct {
	Type    EventType `json:"type"`
	Key     string    `json:"key"`
	Value   Value     `json:"value,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Bus fans events out to subscriber channels. Publishing never blocks: if a
// subscriber's buffer is full the event is dropped for that subscriber and
// counted. Any caller (HTTP layer, tests, CLI) can subscribe.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			metrics.EventsDropped.WithLabelValues(string(event.Type)).Inc()
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
