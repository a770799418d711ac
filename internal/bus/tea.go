package bus

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"parcelgrid/internal/log"
)

// Forwarder bridges bus events into a channel so a Bubble Tea program
// can consume them as messages. The bus itself delivers synchronously;
// the forwarder decouples the render loop from the coordination path.
// Channel-full events are dropped with a debug log, since the render
// side can always re-read store snapshots.
type Forwarder struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	unsub     func()
}

// NewForwarder subscribes to the bus and buffers events for the update
// loop. The subscription is removed when ctx is cancelled or Close is
// called.
func NewForwarder(ctx context.Context, b *Bus, buffer int) *Forwarder {
	f := &Forwarder{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}

	f.unsub = b.Subscribe(func(event Event) {
		select {
		case f.ch <- event:
		default:
			log.Debug(log.CatBus, "forwarder buffer full, dropping event",
				"type", event.Type, "version", event.Version)
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-f.done:
		}
	}()

	return f
}

// Close removes the subscription. Safe to call more than once.
func (f *Forwarder) Close() {
	f.closeOnce.Do(func() {
		f.unsub()
		close(f.done)
	})
}

// Listen returns a tea.Cmd that waits for the next event. Call this in
// your Update function after handling an event to continue receiving.
// Returns nil once the forwarder is closed.
func (f *Forwarder) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.done:
			return nil
		case event := <-f.ch:
			return event
		}
	}
}
