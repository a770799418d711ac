package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// swapLogger installs a buffer-backed global logger for one test and
// restores the previous one on cleanup.
func swapLogger(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	old := defaultLogger
	defaultLogger = &Logger{
		writer:   buf,
		enabled:  true,
		minLevel: LevelDebug,
		taps:     make(map[chan string]struct{}),
	}
	t.Cleanup(func() { defaultLogger = old })
}

func TestTap_ReceivesFormattedEntries(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)

	ch, remove := Tap(4)
	defer remove()

	Info(CatBus, "event delivered", "type", "filter_changed", "version", 3)

	require.Len(t, ch, 1)
	entry := <-ch
	require.Contains(t, entry, "[INFO] [bus] event delivered")
	require.Contains(t, entry, "type=filter_changed")
	require.Contains(t, entry, "version=3")
	require.Contains(t, buf.String(), "event delivered", "taps mirror the file, not replace it")
}

func TestTap_RemoveStopsDelivery(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)

	ch, remove := Tap(4)
	Warn(CatLayout, "before removal")
	remove()
	Warn(CatLayout, "after removal")

	require.Len(t, ch, 1)
	require.Contains(t, <-ch, "before removal")
}

func TestTap_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)

	ch, remove := Tap(1)
	defer remove()

	Debug(CatPanel, "first")
	Debug(CatPanel, "second")

	require.Len(t, ch, 1, "entries beyond the buffer are dropped")
	require.Contains(t, <-ch, "first")
	require.Contains(t, buf.String(), "second", "the file still gets every entry")
}

func TestTap_BelowMinLevelNotDelivered(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)
	defaultLogger.minLevel = LevelWarn

	ch, remove := Tap(4)
	defer remove()

	Debug(CatEntity, "too quiet")
	Error(CatEntity, "loud enough")

	require.Len(t, ch, 1)
	require.Contains(t, <-ch, "loud enough")
}

func TestTap_WithoutLoggerReturnsClosedChannel(t *testing.T) {
	old := defaultLogger
	defaultLogger = nil
	t.Cleanup(func() { defaultLogger = old })

	ch, remove := Tap(1)
	defer remove()

	_, open := <-ch
	require.False(t, open, "no logger means an immediately closed channel")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelWarn, ParseLevel("warn"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("info"))
	require.Equal(t, LevelInfo, ParseLevel("verbose"), "unknown levels default to info")
}
