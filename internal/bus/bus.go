package bus

import (
	"sync"
	"time"

	"parcelgrid/internal/log"
)

// Bus delivers every published event to every currently subscribed
// listener, synchronously and in subscription order. Each sync context
// constructs its own Bus; there is no package-level instance.
//
// Ordering: events of the same type reach all listeners in publish
// order (FIFO per type). No ordering is guaranteed across types.
// Versions are assigned per type and are strictly increasing.
type Bus struct {
	mu         sync.Mutex
	subs       []subscription
	nextSubID  int64
	versions   map[EventType]int64
	queue      []Event
	delivering bool
}

type subscription struct {
	id int64
	fn Listener
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		versions: make(map[EventType]int64),
	}
}

// Subscribe registers a listener for all events. The returned func
// removes exactly that registration and is idempotent on repeat calls.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	id := b.nextSubID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Broadcast assigns the next version for the event type and delivers
// the event to every listener registered at the start of delivery.
// Listeners added mid-broadcast do not see the in-flight event.
//
// Re-entrant broadcasts from inside a listener are queued and drained
// after the current delivery completes, preserving per-type FIFO. A
// panicking listener is recovered and logged; delivery continues to the
// remaining listeners.
func (b *Bus) Broadcast(eventType EventType, source PanelID, payload Payload) {
	b.mu.Lock()

	b.versions[eventType]++
	b.queue = append(b.queue, Event{
		Type:      eventType,
		Source:    source,
		Payload:   payload,
		Version:   b.versions[eventType],
		Timestamp: time.Now(),
	})

	if b.delivering {
		// A delivery loop further up the stack (or on another
		// goroutine) will drain the queue.
		b.mu.Unlock()
		return
	}

	b.delivering = true
	for len(b.queue) > 0 {
		event := b.queue[0]
		b.queue = b.queue[1:]

		// Snapshot so listeners added during delivery are not invoked
		// for this event.
		snapshot := make([]subscription, len(b.subs))
		copy(snapshot, b.subs)

		b.mu.Unlock()
		for _, sub := range snapshot {
			deliver(sub.fn, event)
		}
		b.mu.Lock()
	}
	b.delivering = false
	b.mu.Unlock()
}

func deliver(fn Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatBus, "listener panicked during delivery",
				"type", event.Type, "source", event.Source, "panic", r)
		}
	}()
	fn(event)
}

// Version returns the last version assigned for the event type, or 0 if
// nothing has been broadcast on that stream.
func (b *Bus) Version(eventType EventType) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[eventType]
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
