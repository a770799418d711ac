// Package bus provides the versioned publish/subscribe channel that keeps
// independently attached panels consistent with one another.
package bus

import (
	"time"
)

// EventType identifies a logical event stream. The bus treats type
// strings opaquely; each type carries its own version counter and FIFO
// ordering guarantee.
type EventType string

// FilterChanged is published when the active filter set changes.
const FilterChanged EventType = "filter"

// EntitySelected returns the event type for selections of the given
// entity type, e.g. "entity_selected_county".
func EntitySelected(entityType string) EventType {
	return EventType("entity_selected_" + entityType)
}

// PanelID identifies the panel that originated an event.
type PanelID string

// SystemSource marks events that originate from the system rather than
// a panel (config reload, external layout change).
const SystemSource PanelID = "__system__"

// Payload is the tagged union of event payload shapes. Packages define
// their own payload types by implementing the marker method; consumers
// switch on the concrete type rather than asserting arbitrary objects.
type Payload interface {
	EventPayload()
}

// CustomPayload carries application-defined event data for custom event
// types the core does not interpret.
type CustomPayload map[string]any

func (CustomPayload) EventPayload() {}

// Event is the unit of cross-panel communication. Events are ephemeral:
// they exist only on the bus and in subscriber callbacks, never in
// persistence.
type Event struct {
	Type      EventType
	Source    PanelID
	Payload   Payload
	Version   int64
	Timestamp time.Time
}

// Listener receives every event published on the bus.
type Listener func(Event)
