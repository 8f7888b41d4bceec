package editor

import (
	"sync"
	"time"
)

// EventType names an event published by a Session.
type EventType string

// Event types
const (
	EventCommitted        EventType = "document.committed"
	EventImported         EventType = "document.imported"
	EventUndo             EventType = "history.undo"
	EventRedo             EventType = "history.redo"
	EventVersionCreated   EventType = "version.created"
	EventVersionActivated EventType = "version.activated"
	EventVersionDeleted   EventType = "version.deleted"
	EventGeneration       EventType = "generation.settled"
	EventAutosave         EventType = "autosave"
)

// Event is one notification. Data is JSON-encodable.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// subscriberBuffer is the per-subscriber queue length. Events for a subscriber whose queue
// is full are dropped.
const subscriberBuffer = 64

// broker fans events out to subscribers without ever blocking the publisher.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// publish reports how many subscribers missed the event.
func (b *broker) publish(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
