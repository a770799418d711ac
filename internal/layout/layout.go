// Package layout is the single source of truth for per-panel geometry
// and visibility flags, persisted across restarts through a kv.Store.
package layout

import (
	"encoding/json"
	"sync"
	"time"

	"parcelgrid/internal/geometry"
	"parcelgrid/internal/kv"
	"parcelgrid/internal/log"
)

const keyPrefix = "layout/"

// DefaultCheckpointInterval bounds write amplification during an active
// drag or resize: intermediate frames persist at most this often.
const DefaultCheckpointInterval = 500 * time.Millisecond

// PanelConfig is one panel's persisted geometry and flags.
type PanelConfig struct {
	Geometry  geometry.Geometry `json:"geometry"`
	Visible   bool              `json:"visible"`
	Minimized bool              `json:"minimized"`
	Maximized bool              `json:"maximized"`
}

// normalized enforces the flag constraint: maximized implies not
// minimized.
func (c PanelConfig) normalized() PanelConfig {
	if c.Maximized {
		c.Minimized = false
	}
	return c
}

// PartialConfig merges into an existing PanelConfig; nil fields are
// left untouched.
type PartialConfig struct {
	Position  *geometry.Position `json:"position,omitempty"`
	Size      *geometry.Size     `json:"size,omitempty"`
	Visible   *bool              `json:"visible,omitempty"`
	Minimized *bool              `json:"minimized,omitempty"`
	Maximized *bool              `json:"maximized,omitempty"`
}

// persistedConfig mirrors PanelConfig with pointer fields so a stored
// record only overrides the fields it actually contains.
type persistedConfig struct {
	Geometry  *geometry.Geometry `json:"geometry"`
	Visible   *bool              `json:"visible"`
	Minimized *bool              `json:"minimized"`
	Maximized *bool              `json:"maximized"`
}

// Store holds live panel configs and writes them through to the
// backend. Geometry is handed out by value; panels submit deltas and
// never mutate a shared instance.
type Store struct {
	mu          sync.Mutex
	backend     kv.Store
	panels      map[string]PanelConfig
	checkpoint  time.Duration
	interactive map[string]time.Time // id -> last persisted during interaction
	now         func() time.Time
}

// NewStore creates a layout store over the given backend. A zero
// checkpoint interval uses the default.
func NewStore(backend kv.Store, checkpoint time.Duration) *Store {
	if checkpoint <= 0 {
		checkpoint = DefaultCheckpointInterval
	}
	return &Store{
		backend:     backend,
		panels:      make(map[string]PanelConfig),
		checkpoint:  checkpoint,
		interactive: make(map[string]time.Time),
		now:         time.Now,
	}
}

// RegisterPanel installs a panel's config. A persisted record overrides
// the initial config fields it contains; otherwise the initial config
// is used and persisted immediately. A corrupt stored record is
// discarded with a warning and must never block the mount.
func (s *Store) RegisterPanel(id string, initial PanelConfig) PanelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := initial.normalized()

	raw, found, err := s.backend.Get(keyPrefix + id)
	if err != nil {
		log.ErrorErr(log.CatLayout, "reading persisted layout", err, "panel", id)
	}
	if found {
		var stored persistedConfig
		if err := json.Unmarshal(raw, &stored); err != nil {
			log.Warn(log.CatLayout, "discarding corrupt layout record", "panel", id, "error", err)
		} else {
			if stored.Geometry != nil {
				cfg.Geometry = *stored.Geometry
			}
			if stored.Visible != nil {
				cfg.Visible = *stored.Visible
			}
			if stored.Minimized != nil {
				cfg.Minimized = *stored.Minimized
			}
			if stored.Maximized != nil {
				cfg.Maximized = *stored.Maximized
			}
			cfg = cfg.normalized()
		}
	}

	s.panels[id] = cfg
	s.persistLocked(id, cfg)
	return cfg
}

// UpdatePanelConfig merges the partial fields and writes through. While
// an interaction is active for the panel (BeginInteractive), writes are
// checkpointed at most once per interval; losing in-flight frames on a
// crash is an accepted approximation.
func (s *Store) UpdatePanelConfig(id string, partial PartialConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.panels[id]
	if !ok {
		log.Debug(log.CatLayout, "update for unregistered panel ignored", "panel", id)
		return
	}

	if partial.Position != nil {
		cfg.Geometry.Position = *partial.Position
	}
	if partial.Size != nil {
		cfg.Geometry.Size = *partial.Size
	}
	if partial.Visible != nil {
		cfg.Visible = *partial.Visible
	}
	if partial.Minimized != nil {
		cfg.Minimized = *partial.Minimized
	}
	if partial.Maximized != nil {
		cfg.Maximized = *partial.Maximized
	}
	cfg = cfg.normalized()
	s.panels[id] = cfg

	if last, active := s.interactive[id]; active {
		if s.now().Sub(last) < s.checkpoint {
			return
		}
		s.interactive[id] = s.now()
	}
	s.persistLocked(id, cfg)
}

// BeginInteractive marks the start of a drag or resize so intermediate
// updates are throttled.
func (s *Store) BeginInteractive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Zero time: the first intermediate frame checkpoints immediately.
	s.interactive[id] = time.Time{}
}

// EndInteractive marks the end of a drag or resize and commits the
// final state; last committed state always wins.
func (s *Store) EndInteractive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.interactive[id]; !active {
		return
	}
	delete(s.interactive, id)
	if cfg, ok := s.panels[id]; ok {
		s.persistLocked(id, cfg)
	}
}

// GetPanelConfig returns a snapshot of the panel's config. The second
// return is false for never-registered ids; callers fall back to
// built-in defaults rather than treating that as an error.
func (s *Store) GetPanelConfig(id string) (PanelConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.panels[id]
	return cfg, ok
}

// Unregister drops the live entry. Persisted geometry survives so the
// panel restores on its next mount.
func (s *Store) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.panels, id)
	delete(s.interactive, id)
}

// Reset removes the persisted record and the live entry for a panel.
func (s *Store) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.panels, id)
	delete(s.interactive, id)
	return s.backend.Delete(keyPrefix + id)
}

// PersistedPanelIDs lists every panel id with a stored layout record.
func (s *Store) PersistedPanelIDs() ([]string, error) {
	keys, err := s.backend.Keys(keyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(keyPrefix):])
	}
	return ids, nil
}

// PersistedConfig reads a stored record directly, bypassing the live
// map. Used by tooling; corrupt records report as absent.
func (s *Store) PersistedConfig(id string) (PanelConfig, bool) {
	raw, found, err := s.backend.Get(keyPrefix + id)
	if err != nil || !found {
		return PanelConfig{}, false
	}
	var cfg PanelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return PanelConfig{}, false
	}
	return cfg, true
}

func (s *Store) persistLocked(id string, cfg PanelConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		log.ErrorErr(log.CatLayout, "encoding layout record", err, "panel", id)
		return
	}
	if err := s.backend.Set(keyPrefix+id, raw); err != nil {
		// Persistence failure degrades to session-only behavior.
		log.Warn(log.CatLayout, "layout write failed, continuing in memory", "panel", id, "error", err)
	}
}
