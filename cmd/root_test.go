package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"parcelgrid/internal/config"
	"parcelgrid/internal/kv"
)

func TestValidateConfig_RejectsBadDriver(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Storage.Driver = "postgres"

	err := validateConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage.driver")
}

func TestOpenBackend_MemoryDriver(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Storage.Driver = "memory"

	backend := openBackend()
	defer func() { _ = backend.Close() }()
	require.IsType(t, &kv.Memory{}, backend)
}

func TestLayoutList_EmptyStore(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Storage.Driver = "memory"

	var buf bytes.Buffer
	layoutListCmd.SetOut(&buf)
	require.NoError(t, layoutListCmd.RunE(layoutListCmd, nil))
	require.Contains(t, buf.String(), "no persisted layouts")
}

func TestFiltersList_EmptyStore(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = config.Defaults()
	cfg.Storage.Driver = "memory"

	var buf bytes.Buffer
	filtersListCmd.SetOut(&buf)
	require.NoError(t, filtersListCmd.RunE(filtersListCmd, nil))
	require.Contains(t, buf.String(), "no saved filters")
}
