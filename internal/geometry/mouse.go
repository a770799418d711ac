package geometry

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// HeaderZoneID is the bubblezone id a renderer marks on a panel header
// to make it the drag handle.
func HeaderZoneID(panelID string) string {
	return panelID + "/header"
}

// HandleZoneID is the bubblezone id for one resize handle of a panel.
func HandleZoneID(panelID string, h Handle) string {
	return panelID + "/resize/" + h.String()
}

// MouseAdapter maps Bubble Tea mouse messages onto a panel's drag and
// resize trackers. The renderer marks the header and resize handles
// with zone.Mark; the adapter hit-tests presses against those zones.
type MouseAdapter struct {
	panelID string
	drag    *DragTracker
	resize  *ResizeTracker
	handles []Handle

	// OnDragEnd and OnResizeEnd fire with the final geometry when the
	// pointer is released (or capture is lost). This is where callers
	// commit to the layout store.
	OnDragEnd   func(Geometry)
	OnResizeEnd func(Geometry)
}

// NewMouseAdapter creates an adapter for one panel. handles lists the
// resize handles the renderer actually marks; defaults to the
// south-east corner when empty.
func NewMouseAdapter(panelID string, drag *DragTracker, resize *ResizeTracker, handles ...Handle) *MouseAdapter {
	if len(handles) == 0 {
		handles = []Handle{HandleSouthEast}
	}
	return &MouseAdapter{
		panelID: panelID,
		drag:    drag,
		resize:  resize,
		handles: handles,
	}
}

// Update feeds one mouse message through the trackers. current is the
// panel's geometry at the time of the message. Returns the recomputed
// geometry and true while an interaction produced one.
func (a *MouseAdapter) Update(msg tea.MouseMsg, current Geometry) (Geometry, bool) {
	pointer := Position{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return Geometry{}, false
		}
		for _, h := range a.handles {
			if z := zone.Get(HandleZoneID(a.panelID, h)); z != nil && z.InBounds(msg) {
				a.resize.Start(h, pointer, current)
				return current, true
			}
		}
		if z := zone.Get(HeaderZoneID(a.panelID)); z != nil && z.InBounds(msg) {
			a.drag.Start(pointer, current)
			return current, true
		}

	case tea.MouseActionMotion:
		if a.resize.Active() {
			return a.resize.Move(pointer)
		}
		if a.drag.Active() {
			return a.drag.Move(pointer)
		}

	case tea.MouseActionRelease:
		if g, ok := a.resize.End(pointer); ok {
			if a.OnResizeEnd != nil {
				a.OnResizeEnd(g)
			}
			return g, true
		}
		if g, ok := a.drag.End(pointer); ok {
			if a.OnDragEnd != nil {
				a.OnDragEnd(g)
			}
			return g, true
		}
	}

	return Geometry{}, false
}

// Cancel handles pointer-capture loss (e.g. the terminal lost focus
// mid-drag). Both trackers return to idle and the last known geometry
// is committed through the end callbacks.
func (a *MouseAdapter) Cancel() {
	if g, ok := a.resize.Cancel(); ok && a.OnResizeEnd != nil {
		a.OnResizeEnd(g)
	}
	if g, ok := a.drag.Cancel(); ok && a.OnDragEnd != nil {
		a.OnDragEnd(g)
	}
}
