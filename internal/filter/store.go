package filter

import (
	"sync"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/kv"
	"parcelgrid/internal/log"
)

// ChangePayload is the bus payload for filter events: the full
// resulting set plus the scopes this particular apply touched.
type ChangePayload struct {
	Filters  FilterSet
	Affected []Scope
}

func (ChangePayload) EventPayload() {}

// ConflictFunc observes a last-write-wins discard: the receiving
// panel's own criteria for scope were replaced by adopted criteria from
// another panel. Resolution still happens; the callback only makes it
// visible instead of silently overwriting user edits.
type ConflictFunc func(scope Scope, discarded, adopted Criteria)

// Store is one panel's replica of the shared filter state. Replicas
// converge through the bus: per-scope versions decide adoption, and
// arrival order at the bus (FIFO per type) breaks ties
// deterministically.
type Store struct {
	mu       sync.Mutex
	panelID  bus.PanelID
	bus      *bus.Bus
	backend  kv.Store
	active   FilterSet
	versions map[Scope]int64
	// dirty marks scopes whose last write came from this panel, so an
	// incoming overwrite of different criteria is a reportable conflict.
	dirty      map[Scope]bool
	onConflict ConflictFunc
	unsub      func()
}

// NewStore creates a per-panel filter store subscribed to the bus.
// backend persists saved filters and may be shared across panels.
// onConflict may be nil. Call Close on panel detach.
func NewStore(panelID bus.PanelID, b *bus.Bus, backend kv.Store, onConflict ConflictFunc) *Store {
	s := &Store{
		panelID:    panelID,
		bus:        b,
		backend:    backend,
		active:     make(FilterSet),
		versions:   make(map[Scope]int64),
		dirty:      make(map[Scope]bool),
		onConflict: onConflict,
	}
	s.unsub = b.Subscribe(s.handle)
	return s
}

// Close removes the bus subscription. Idempotent.
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// ApplyFilters deep-merges the given set into the active filters,
// scope by scope, and broadcasts the full resulting set. The bus
// assigns the filter stream version; affected scopes adopt it when the
// panel's own event comes back through the handler.
func (s *Store) ApplyFilters(fs FilterSet) {
	s.mu.Lock()
	affected := make([]Scope, 0, len(fs))
	for scope, criteria := range fs {
		existing, ok := s.active[scope]
		if !ok {
			existing = make(Criteria, len(criteria))
			s.active[scope] = existing
		}
		for key, predicate := range criteria {
			existing[key] = predicate
		}
		affected = append(affected, scope)
		s.dirty[scope] = true
	}
	snapshot := s.active.Clone()
	s.mu.Unlock()

	s.bus.Broadcast(bus.FilterChanged, s.panelID, ChangePayload{
		Filters:  snapshot,
		Affected: affected,
	})
}

// Active returns a deep copy of the panel's current filter set.
func (s *Store) Active() FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

// Version returns the last adopted version for a scope.
func (s *Store) Version(scope Scope) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[scope]
}

// FilterData evaluates the active filter set (or an explicit override)
// over the dataset. Pure and synchronous: no side effects, no
// broadcast, shared state untouched.
func (s *Store) FilterData(rows []Row, override *FilterSet) []Row {
	var fs FilterSet
	if override != nil {
		fs = *override
	} else {
		fs = s.Active()
	}

	global := fs[ScopeGlobal]
	panel := fs[Scope(s.panelID)]

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matches(row, global, panel) {
			out = append(out, row)
		}
	}
	return out
}

// handle adopts filter events from the bus. For each affected scope:
// strictly newer versions win; the panel's own divergent edits being
// overwritten are reported through the conflict callback before being
// discarded.
func (s *Store) handle(event bus.Event) {
	if event.Type != bus.FilterChanged {
		return
	}
	payload, ok := event.Payload.(ChangePayload)
	if !ok {
		return
	}

	type conflict struct {
		scope              Scope
		discarded, adopted Criteria
	}
	var conflicts []conflict

	s.mu.Lock()
	if event.Source == s.panelID {
		for _, scope := range payload.Affected {
			if event.Version > s.versions[scope] {
				s.versions[scope] = event.Version
			}
		}
		s.mu.Unlock()
		return
	}

	for _, scope := range payload.Affected {
		if event.Version <= s.versions[scope] {
			log.Debug(log.CatFilter, "stale filter event discarded", "panel", s.panelID,
				"scope", scope, "incoming", event.Version, "local", s.versions[scope])
			continue
		}
		adopted := payload.Filters[scope].clone()
		local := s.active[scope]
		if s.dirty[scope] && !equalCriteria(local, adopted) {
			conflicts = append(conflicts, conflict{
				scope:     scope,
				discarded: local.clone(),
				adopted:   adopted.clone(),
			})
		}
		s.active[scope] = adopted
		s.versions[scope] = event.Version
		s.dirty[scope] = false
	}
	onConflict := s.onConflict
	s.mu.Unlock()

	if onConflict != nil {
		for _, c := range conflicts {
			onConflict(c.scope, c.discarded, c.adopted)
		}
	}
}
