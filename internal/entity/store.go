package entity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/log"
)

var tracer = otel.Tracer("parcelgrid/internal/entity")

// State is a panel's replica of the selection for one entity type.
// Replicas converge across panels through version comparison; there is
// no single shared object.
type State struct {
	Entity  *Entity
	Loading bool
	Err     error
	Version int64
}

// Store tracks the selected entity per type for one panel. Create one
// per attached panel; it subscribes to the sync context's bus and
// adopts newer selections broadcast by other panels.
type Store struct {
	mu      sync.Mutex
	panelID bus.PanelID
	bus     *bus.Bus
	fetcher Fetcher
	states  map[Type]*State
	// inFlight tags the newest fetch per type so a superseded fetch's
	// resolution cannot clobber a newer selection (last-request-wins).
	inFlight map[Type]uuid.UUID
	unsub    func()
}

// NewStore creates a per-panel entity store and subscribes it to the
// bus. Call Close on panel detach.
func NewStore(panelID bus.PanelID, b *bus.Bus, fetcher Fetcher) *Store {
	s := &Store{
		panelID:  panelID,
		bus:      b,
		fetcher:  fetcher,
		states:   make(map[Type]*State),
		inFlight: make(map[Type]uuid.UUID),
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

func (s *Store) state(typ Type) *State {
	if st, ok := s.states[typ]; ok {
		return st
	}
	st := &State{}
	s.states[typ] = st
	return st
}

// SelectEntity resolves the entity through the fetcher and, on success,
// updates local state and broadcasts the selection to other panels. On
// failure the previously held entity is left untouched and only Err is
// set. A selection superseded by a newer SelectEntity call on the same
// type is discarded when it resolves.
func (s *Store) SelectEntity(ctx context.Context, id string, typ Type) (Entity, error) {
	token := uuid.New()

	s.mu.Lock()
	st := s.state(typ)
	st.Loading = true
	st.Err = nil
	s.inFlight[typ] = token
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "entity.fetch", trace.WithAttributes(
		attribute.String("entity.type", string(typ)),
		attribute.String("entity.id", id),
	))
	e, err := s.fetcher.FetchEntity(ctx, typ, id)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	s.mu.Lock()
	if s.inFlight[typ] != token {
		// A newer selection started while we were fetching.
		s.mu.Unlock()
		log.Debug(log.CatEntity, "discarding superseded fetch", "panel", s.panelID, "type", typ, "id", id)
		if err != nil {
			return Entity{}, err
		}
		return e, nil
	}
	delete(s.inFlight, typ)

	if err != nil {
		st.Loading = false
		st.Err = err
		s.mu.Unlock()
		log.ErrorErr(log.CatEntity, "entity fetch failed", err, "panel", s.panelID, "type", typ, "id", id)
		return Entity{}, err
	}

	st.Loading = false
	st.Err = nil
	copied := e
	st.Entity = &copied
	s.mu.Unlock()

	// The bus assigns the stream version; our own event reflects it
	// back into local state via handle.
	s.bus.Broadcast(EventType(typ), s.panelID, SelectionPayload{Entity: e})
	return e, nil
}

// UpdateEntity merges partial attributes into the local entity of the
// given type and broadcasts the result, so optimistic local edits reach
// other panels. No-op when no entity of that type is selected.
func (s *Store) UpdateEntity(typ Type, partial map[string]any) {
	s.mu.Lock()
	st := s.state(typ)
	if st.Entity == nil {
		s.mu.Unlock()
		log.Debug(log.CatEntity, "update without selection ignored", "panel", s.panelID, "type", typ)
		return
	}
	merged := *st.Entity
	if merged.Attrs == nil {
		merged.Attrs = make(map[string]any, len(partial))
	} else {
		attrs := make(map[string]any, len(merged.Attrs)+len(partial))
		for k, v := range merged.Attrs {
			attrs[k] = v
		}
		merged.Attrs = attrs
	}
	for k, v := range partial {
		if k == "name" {
			if name, ok := v.(string); ok {
				merged.Name = name
				continue
			}
		}
		merged.Attrs[k] = v
	}
	st.Entity = &merged
	snapshot := merged
	s.mu.Unlock()

	s.bus.Broadcast(EventType(typ), s.panelID, SelectionPayload{Entity: snapshot})
}

// ClearEntity resets the local replica for a type. Clearing is
// local-only: "no selection" is not broadcast to other panels. The
// version is kept so stale events remain rejected.
func (s *Store) ClearEntity(typ Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(typ)
	st.Entity = nil
	st.Err = nil
	st.Loading = false
}

// Snapshot returns the current state for a type by value.
func (s *Store) Snapshot(typ Type) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(typ)
	out := State{Loading: st.Loading, Err: st.Err, Version: st.Version}
	if st.Entity != nil {
		copied := *st.Entity
		out.Entity = &copied
	}
	return out
}

// handle adopts selections broadcast by other panels when their version
// is strictly newer; stale updates are discarded silently. Our own
// events only sync the bus-assigned version back into local state.
func (s *Store) handle(event bus.Event) {
	payload, ok := event.Payload.(SelectionPayload)
	if !ok {
		return
	}
	typ := payload.Entity.Type
	if EventType(typ) != event.Type {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(typ)

	if event.Source == s.panelID {
		if event.Version > st.Version {
			st.Version = event.Version
		}
		return
	}

	if event.Version <= st.Version {
		log.Debug(log.CatEntity, "stale selection discarded", "panel", s.panelID,
			"type", typ, "incoming", event.Version, "local", st.Version)
		return
	}

	copied := payload.Entity
	st.Entity = &copied
	st.Loading = false
	st.Err = nil
	st.Version = event.Version
}
