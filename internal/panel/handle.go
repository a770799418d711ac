package panel

import (
	"context"
	"sync"

	"parcelgrid/internal/entity"
	"parcelgrid/internal/filter"
	"parcelgrid/internal/geometry"
	"parcelgrid/internal/layout"
	"parcelgrid/internal/registry"
)

// Handle is a panel's connection to its sync context. All methods are
// safe after Detach; they just stop having shared effects.
type Handle struct {
	ctx *SyncContext

	mu   sync.Mutex
	desc Descriptor
	once sync.Once

	entity  *entity.Store
	filters *filter.Store
	drag    *geometry.DragTracker
	resize  *geometry.ResizeTracker
}

// Descriptor returns the panel's current descriptor.
func (h *Handle) Descriptor() Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.desc
}

// Entity returns the panel's entity store.
func (h *Handle) Entity() *entity.Store { return h.entity }

// Filters returns the panel's filter store.
func (h *Handle) Filters() *filter.Store { return h.filters }

// Layout returns a snapshot of the panel's layout config.
func (h *Handle) Layout() layout.PanelConfig {
	cfg, _ := h.ctx.layout.GetPanelConfig(h.id())
	return cfg
}

// Component resolves the panel's content component through the shared
// registry.
func (h *Handle) Component(ctx context.Context) (registry.Component, error) {
	h.mu.Lock()
	contentType := h.desc.ContentType
	h.mu.Unlock()
	return h.ctx.registry.Resolve(ctx, contentType)
}

// Detach unsubscribes the panel's stores and drops the live
// registration. Persisted geometry survives for the next mount.
// Idempotent.
func (h *Handle) Detach() {
	h.once.Do(func() {
		h.entity.Close()
		h.filters.Close()
		h.ctx.layout.Unregister(h.id())
		h.ctx.detach(h.id())
	})
}

// SetVisible toggles panel visibility.
func (h *Handle) SetVisible(visible bool) {
	h.ctx.layout.UpdatePanelConfig(h.id(), layout.PartialConfig{Visible: &visible})
}

// SetMinimized toggles minimization. Minimizing a maximized panel
// restores it first: the two flags are mutually exclusive.
func (h *Handle) SetMinimized(minimized bool) {
	partial := layout.PartialConfig{Minimized: &minimized}
	if minimized {
		restored := false
		partial.Maximized = &restored
	}
	h.ctx.layout.UpdatePanelConfig(h.id(), partial)
}

// SetMaximized toggles maximization; maximizing always un-minimizes.
func (h *Handle) SetMaximized(maximized bool) {
	h.ctx.layout.UpdatePanelConfig(h.id(), layout.PartialConfig{Maximized: &maximized})
}

// StartDrag begins moving the panel from the given pointer position.
func (h *Handle) StartDrag(pointer geometry.Position) {
	h.ctx.layout.BeginInteractive(h.id())
	h.drag.Start(pointer, h.Layout().Geometry)
}

// DragTo recomputes geometry for the current pointer and feeds it to
// the layout store (checkpoint-throttled while the drag is active).
func (h *Handle) DragTo(pointer geometry.Position) (geometry.Geometry, bool) {
	g, ok := h.drag.Move(pointer)
	if ok {
		h.commitGeometry(g)
	}
	return g, ok
}

// EndDrag commits the final geometry and ends throttling.
func (h *Handle) EndDrag(pointer geometry.Position) (geometry.Geometry, bool) {
	g, ok := h.drag.End(pointer)
	if ok {
		h.commitGeometry(g)
	}
	h.ctx.layout.EndInteractive(h.id())
	return g, ok
}

// CancelDrag handles pointer-capture loss mid-drag: the last known
// geometry is committed and the tracker returns to idle.
func (h *Handle) CancelDrag() (geometry.Geometry, bool) {
	g, ok := h.drag.Cancel()
	if ok {
		h.commitGeometry(g)
	}
	h.ctx.layout.EndInteractive(h.id())
	return g, ok
}

// StartResize begins resizing the panel by the given handle.
func (h *Handle) StartResize(handle geometry.Handle, pointer geometry.Position) {
	h.ctx.layout.BeginInteractive(h.id())
	h.resize.Start(handle, pointer, h.Layout().Geometry)
}

// ResizeTo recomputes clamped geometry for the current pointer and
// feeds it to the layout store.
func (h *Handle) ResizeTo(pointer geometry.Position) (geometry.Geometry, bool) {
	g, ok := h.resize.Move(pointer)
	if ok {
		h.commitGeometry(g)
	}
	return g, ok
}

// EndResize commits the final geometry and ends throttling.
func (h *Handle) EndResize(pointer geometry.Position) (geometry.Geometry, bool) {
	g, ok := h.resize.End(pointer)
	if ok {
		h.commitGeometry(g)
	}
	h.ctx.layout.EndInteractive(h.id())
	return g, ok
}

// CancelResize handles pointer-capture loss mid-resize.
func (h *Handle) CancelResize() (geometry.Geometry, bool) {
	g, ok := h.resize.Cancel()
	if ok {
		h.commitGeometry(g)
	}
	h.ctx.layout.EndInteractive(h.id())
	return g, ok
}

func (h *Handle) commitGeometry(g geometry.Geometry) {
	h.ctx.layout.UpdatePanelConfig(h.id(), layout.PartialConfig{
		Position: &g.Position,
		Size:     &g.Size,
	})
}

func (h *Handle) id() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.desc.ID
}
