package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"parcelgrid/internal/kv"
)

// TempSQLite creates a migrated sqlite store under the test's temp
// directory and closes it when the test ends.
func TempSQLite(t *testing.T) *kv.SQLite {
	t.Helper()

	store, err := kv.NewSQLite(filepath.Join(t.TempDir(), "parcelgrid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
