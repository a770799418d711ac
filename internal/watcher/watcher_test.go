package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/watcher"
)

// eventSink collects bus events behind a mutex since the watcher
// broadcasts from its own goroutine.
type eventSink struct {
	mu     sync.Mutex
	events []bus.Event
}

func (s *eventSink) record(event bus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parcelgrid.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("test"), 0644))

	b := bus.New()
	sink := &eventSink{}
	b.Subscribe(sink.record)

	w, err := watcher.New(watcher.Config{
		DBPath:      dbPath,
		DebounceDur: 50 * time.Millisecond,
	}, b)
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Start())

	// Rapid writes should coalesce into a single broadcast.
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte(fmt.Sprintf("test%d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond, "expected exactly one debounced broadcast")

	// No second broadcast should follow quickly.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, sink.count())

	sink.mu.Lock()
	event := sink.events[0]
	sink.mu.Unlock()
	require.Equal(t, watcher.ExternalChange, event.Type)
	require.Equal(t, bus.SystemSource, event.Source)
	payload := event.Payload.(bus.CustomPayload)
	require.Equal(t, dbPath, payload["path"])
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parcelgrid.db")
	otherPath := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(dbPath, []byte("db"), 0644))
	// Pre-create the other file so writes to it are just Write events.
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0644))

	b := bus.New()
	sink := &eventSink{}
	b.Subscribe(sink.record)

	w, err := watcher.New(watcher.Config{
		DBPath:      dbPath,
		DebounceDur: 50 * time.Millisecond,
	}, b)
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(otherPath, []byte("other content"), 0644))

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, sink.count(), "should not broadcast for unrelated files")
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parcelgrid.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("test"), 0644))

	w, err := watcher.New(watcher.Config{
		DBPath:      dbPath,
		DebounceDur: 50 * time.Millisecond,
	}, bus.New())
	require.NoError(t, err, "failed to create watcher")

	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}
