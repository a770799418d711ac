package layout

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parcelgrid/internal/geometry"
	"parcelgrid/internal/kv"
)

func defaultConfig() PanelConfig {
	return PanelConfig{
		Geometry: geometry.Geometry{
			Position: geometry.Position{X: 40, Y: 40},
			Size:     geometry.Size{Width: 480, Height: 360},
		},
		Visible: true,
	}
}

func TestRegisterPanel_PersistsDefaultsWhenNoRecord(t *testing.T) {
	backend := kv.NewMemory()
	s := NewStore(backend, 0)

	cfg := s.RegisterPanel("county-1", defaultConfig())
	require.Equal(t, defaultConfig(), cfg)

	raw, ok, err := backend.Get("layout/county-1")
	require.NoError(t, err)
	require.True(t, ok, "defaults must be persisted immediately")

	var stored PanelConfig
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Equal(t, defaultConfig(), stored)
}

func TestRegisterPanel_PersistedRecordOverridesDefaults(t *testing.T) {
	backend := kv.NewMemory()
	s1 := NewStore(backend, 0)
	s1.RegisterPanel("map-1", defaultConfig())
	s1.UpdatePanelConfig("map-1", PartialConfig{
		Position: &geometry.Position{X: 300, Y: 200},
	})

	// Fresh store simulates a reload.
	s2 := NewStore(backend, 0)
	cfg := s2.RegisterPanel("map-1", defaultConfig())
	require.Equal(t, geometry.Position{X: 300, Y: 200}, cfg.Geometry.Position)
	require.Equal(t, defaultConfig().Geometry.Size, cfg.Geometry.Size)
}

func TestRegisterPanel_PartialRecordOnlyOverridesPresentFields(t *testing.T) {
	backend := kv.NewMemory()
	require.NoError(t, backend.Set("layout/list-1", []byte(`{"maximized": true}`)))

	s := NewStore(backend, 0)
	cfg := s.RegisterPanel("list-1", defaultConfig())

	require.True(t, cfg.Maximized)
	require.Equal(t, defaultConfig().Geometry, cfg.Geometry, "absent fields keep supplied defaults")
}

func TestRegisterPanel_CorruptRecordDiscardedNotFatal(t *testing.T) {
	backend := kv.NewMemory()
	require.NoError(t, backend.Set("layout/detail-1", []byte(`{not json!`)))

	s := NewStore(backend, 0)
	var cfg PanelConfig
	require.NotPanics(t, func() {
		cfg = s.RegisterPanel("detail-1", defaultConfig())
	})
	require.Equal(t, defaultConfig(), cfg, "panel mounts with supplied defaults")

	// The corrupt record is replaced by the defaults.
	raw, ok, err := backend.Get("layout/detail-1")
	require.NoError(t, err)
	require.True(t, ok)
	var stored PanelConfig
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Equal(t, defaultConfig(), stored)
}

func TestMaximizedImpliesNotMinimized(t *testing.T) {
	backend := kv.NewMemory()
	s := NewStore(backend, 0)
	s.RegisterPanel("p", defaultConfig())

	minimized := true
	s.UpdatePanelConfig("p", PartialConfig{Minimized: &minimized})
	cfg, _ := s.GetPanelConfig("p")
	require.True(t, cfg.Minimized)

	maximized := true
	s.UpdatePanelConfig("p", PartialConfig{Maximized: &maximized})
	cfg, _ = s.GetPanelConfig("p")
	require.True(t, cfg.Maximized)
	require.False(t, cfg.Minimized, "maximized must clear minimized")
}

func TestGetPanelConfig_UnknownIDReturnsFalse(t *testing.T) {
	s := NewStore(kv.NewMemory(), 0)
	_, ok := s.GetPanelConfig("never-registered")
	require.False(t, ok)
}

func TestUpdatePanelConfig_UnregisteredPanelIgnored(t *testing.T) {
	s := NewStore(kv.NewMemory(), 0)
	visible := true
	require.NotPanics(t, func() {
		s.UpdatePanelConfig("ghost", PartialConfig{Visible: &visible})
	})
}

// countingStore wraps Memory to count writes.
type countingStore struct {
	*kv.Memory
	writes int
}

func (c *countingStore) Set(key string, value []byte) error {
	c.writes++
	return c.Memory.Set(key, value)
}

func TestInteractiveUpdatesAreCheckpointed(t *testing.T) {
	backend := &countingStore{Memory: kv.NewMemory()}
	s := NewStore(backend, time.Minute)

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.RegisterPanel("p", defaultConfig())
	writesAfterRegister := backend.writes

	s.BeginInteractive("p")
	for i := 0; i < 50; i++ {
		s.UpdatePanelConfig("p", PartialConfig{
			Position: &geometry.Position{X: i, Y: i},
		})
	}
	// First frame checkpoints, the rest are throttled within the interval.
	require.Equal(t, writesAfterRegister+1, backend.writes)

	s.EndInteractive("p")
	require.Equal(t, writesAfterRegister+2, backend.writes, "final state commits on end")

	cfg, _ := s.GetPanelConfig("p")
	require.Equal(t, geometry.Position{X: 49, Y: 49}, cfg.Geometry.Position)
}

func TestInteractiveCheckpointAfterIntervalElapses(t *testing.T) {
	backend := &countingStore{Memory: kv.NewMemory()}
	s := NewStore(backend, 100*time.Millisecond)

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.RegisterPanel("p", defaultConfig())
	base := backend.writes

	s.BeginInteractive("p")
	s.UpdatePanelConfig("p", PartialConfig{Position: &geometry.Position{X: 1}})
	require.Equal(t, base+1, backend.writes)

	now = now.Add(200 * time.Millisecond)
	s.UpdatePanelConfig("p", PartialConfig{Position: &geometry.Position{X: 2}})
	require.Equal(t, base+2, backend.writes)
}

func TestUnregisterKeepsPersistedGeometry(t *testing.T) {
	backend := kv.NewMemory()
	s := NewStore(backend, 0)
	s.RegisterPanel("p", defaultConfig())

	s.Unregister("p")
	_, ok := s.GetPanelConfig("p")
	require.False(t, ok)

	_, found, err := backend.Get("layout/p")
	require.NoError(t, err)
	require.True(t, found, "persisted geometry survives unmount")
}

func TestReset_RemovesPersistedRecord(t *testing.T) {
	backend := kv.NewMemory()
	s := NewStore(backend, 0)
	s.RegisterPanel("p", defaultConfig())

	require.NoError(t, s.Reset("p"))

	_, found, err := backend.Get("layout/p")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPersistedPanelIDs(t *testing.T) {
	backend := kv.NewMemory()
	s := NewStore(backend, 0)
	s.RegisterPanel("b-panel", defaultConfig())
	s.RegisterPanel("a-panel", defaultConfig())

	ids, err := s.PersistedPanelIDs()
	require.NoError(t, err)
	require.Equal(t, []string{"a-panel", "b-panel"}, ids)
}
