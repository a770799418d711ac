package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parcelgrid/internal/config"
)

// syncWriter guards the output buffer: the watcher goroutine may still
// be flushing an event while the test reads.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestWatch_RequiresEnabledConfig(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Watcher.Enabled = false

	err := watchCmd.RunE(watchCmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "watcher.enabled")
}

func TestWatch_RejectsMemoryDriver(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Watcher.Enabled = true
	cfg.Storage.Driver = "memory"

	err := watchCmd.RunE(watchCmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sqlite")
}

func TestWatch_PrintsExternalChanges(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	dbPath := filepath.Join(t.TempDir(), "parcelgrid.db")
	cfg = config.Defaults()
	cfg.Storage.Path = dbPath
	cfg.Watcher.Enabled = true
	cfg.Watcher.DebounceMS = 20

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	watchCmd.SetContext(ctx)

	out := &syncWriter{}
	watchCmd.SetOut(out)

	// Simulate another process writing the storage file while the
	// command runs.
	go func() {
		for i := 0; i < 10; i++ {
			_ = os.WriteFile(dbPath, []byte("layouts"), 0o600)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	// Stop the command as soon as the debounced event lands; the
	// context timeout is only a backstop.
	go func() {
		for {
			if strings.Contains(out.String(), "layout_external_change") {
				cancel()
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}()

	require.NoError(t, watchCmd.RunE(watchCmd, nil))
	require.Contains(t, out.String(), "layout_external_change")
	require.Contains(t, out.String(), dbPath)
}
