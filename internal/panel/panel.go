// Package panel ties the coordination stores together: a SyncContext
// owns the bus, registry, layout and persistence shared by a set of
// panels, and Attach wires one panel's stores into it.
package panel

import (
	"sort"
	"sync"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/entity"
	"parcelgrid/internal/filter"
	"parcelgrid/internal/geometry"
	"parcelgrid/internal/kv"
	"parcelgrid/internal/layout"
	"parcelgrid/internal/log"
	"parcelgrid/internal/registry"
)

// Default panel geometry for first mounts with no persisted record.
const (
	DefaultWidth  = 640
	DefaultHeight = 400
)

// Descriptor declares a panel to the sync context.
type Descriptor struct {
	ID          string
	ContentType string
	Title       string
	Visible     bool
	Minimized   bool
	Maximized   bool
	MinWidth    int
	MinHeight   int
}

// Options configures a SyncContext. Zero fields get working defaults;
// only Fetcher has no useful zero value and falls back to a fetcher
// that always errors.
type Options struct {
	Bus      *bus.Bus
	Registry *registry.Registry
	Backend  kv.Store
	Layout   *layout.Store
	Fetcher  entity.Fetcher
	// Bounds constrains panel dragging; nil means unbounded.
	Bounds *geometry.Bounds
	// OnConflict observes discarded filter edits on every attached
	// panel's filter store.
	OnConflict filter.ConflictFunc
}

// SyncContext is the explicitly constructed coordination root. Nothing
// in this package is a package-level singleton: tests and applications
// build as many contexts as they need and panels only see the one they
// were attached to.
type SyncContext struct {
	mu       sync.Mutex
	bus      *bus.Bus
	registry *registry.Registry
	backend  kv.Store
	layout   *layout.Store
	fetcher  entity.Fetcher
	bounds   *geometry.Bounds
	conflict filter.ConflictFunc
	live     map[string]*Handle
}

// New builds a sync context from the given options.
func New(opts Options) *SyncContext {
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Backend == nil {
		opts.Backend = kv.NewMemory()
	}
	if opts.Layout == nil {
		opts.Layout = layout.NewStore(opts.Backend, 0)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = entity.FetcherFunc(entity.NoFetcher)
	}
	return &SyncContext{
		bus:      opts.Bus,
		registry: opts.Registry,
		backend:  opts.Backend,
		layout:   opts.Layout,
		fetcher:  opts.Fetcher,
		bounds:   opts.Bounds,
		conflict: opts.OnConflict,
		live:     make(map[string]*Handle),
	}
}

// Bus returns the shared event bus.
func (c *SyncContext) Bus() *bus.Bus { return c.bus }

// Registry returns the shared component registry.
func (c *SyncContext) Registry() *registry.Registry { return c.registry }

// Layout returns the shared layout store.
func (c *SyncContext) Layout() *layout.Store { return c.layout }

// Backend returns the shared persistence backend.
func (c *SyncContext) Backend() kv.Store { return c.backend }

// Attach registers a panel: restores its geometry through the layout
// store and subscribes fresh entity and filter stores to the bus.
// Attaching an id that is already live overwrites the descriptor with a
// warning and returns the existing handle; duplicate ids are a caller
// bug but never fatal.
func (c *SyncContext) Attach(desc Descriptor) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.live[desc.ID]; ok {
		log.Warn(log.CatPanel, "duplicate panel id, overwriting descriptor", "panel", desc.ID)
		existing.mu.Lock()
		existing.desc = desc
		existing.mu.Unlock()
		return existing, nil
	}

	constraints := geometry.Constraints{
		MinWidth:  desc.MinWidth,
		MinHeight: desc.MinHeight,
	}
	initial := layout.PanelConfig{
		Geometry: geometry.Geometry{
			Size: geometry.Size{Width: DefaultWidth, Height: DefaultHeight},
		},
		Visible:   desc.Visible,
		Minimized: desc.Minimized,
		Maximized: desc.Maximized,
	}
	cfg := c.layout.RegisterPanel(desc.ID, initial)
	log.Debug(log.CatPanel, "panel attached", "panel", desc.ID,
		"content_type", desc.ContentType, "x", cfg.Geometry.Position.X, "y", cfg.Geometry.Position.Y)

	h := &Handle{
		ctx:     c,
		desc:    desc,
		entity:  entity.NewStore(bus.PanelID(desc.ID), c.bus, c.fetcher),
		filters: filter.NewStore(bus.PanelID(desc.ID), c.bus, c.backend, c.conflict),
		drag:    geometry.NewDragTracker(c.bounds),
		resize:  geometry.NewResizeTracker(constraints),
	}
	c.live[desc.ID] = h
	return h, nil
}

// Panels lists the descriptors of the currently attached panels, sorted
// by id.
func (c *SyncContext) Panels() []Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Descriptor, 0, len(c.live))
	for _, h := range c.live {
		h.mu.Lock()
		out = append(out, h.desc)
		h.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close detaches every live panel. The backend is left open; its owner
// closes it.
func (c *SyncContext) Close() {
	c.mu.Lock()
	handles := make([]*Handle, 0, len(c.live))
	for _, h := range c.live {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		h.Detach()
	}
}

func (c *SyncContext) detach(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.live, id)
}
