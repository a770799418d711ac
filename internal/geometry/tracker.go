package geometry

// Handle identifies which edge or corner a resize grabs.
type Handle int

const (
	HandleEast Handle = iota
	HandleSouth
	HandleSouthEast
	HandleWest
	HandleNorth
	HandleNorthWest
	HandleNorthEast
	HandleSouthWest
)

func (h Handle) String() string {
	switch h {
	case HandleEast:
		return "e"
	case HandleSouth:
		return "s"
	case HandleSouthEast:
		return "se"
	case HandleWest:
		return "w"
	case HandleNorth:
		return "n"
	case HandleNorthWest:
		return "nw"
	case HandleNorthEast:
		return "ne"
	case HandleSouthWest:
		return "sw"
	default:
		return "unknown"
	}
}

func (h Handle) horizontal() int {
	switch h {
	case HandleEast, HandleSouthEast, HandleNorthEast:
		return 1
	case HandleWest, HandleNorthWest, HandleSouthWest:
		return -1
	default:
		return 0
	}
}

func (h Handle) vertical() int {
	switch h {
	case HandleSouth, HandleSouthEast, HandleSouthWest:
		return 1
	case HandleNorth, HandleNorthWest, HandleNorthEast:
		return -1
	default:
		return 0
	}
}

// DragTracker is the idle/active state machine for moving one panel.
// Independent instances across panels do not interact.
type DragTracker struct {
	bounds *Bounds

	active       bool
	startPointer Position
	start        Geometry
	last         Geometry
}

// NewDragTracker creates a tracker. bounds may be nil for unbounded
// dragging.
func NewDragTracker(bounds *Bounds) *DragTracker {
	return &DragTracker{bounds: bounds}
}

// Active reports whether a drag is in progress.
func (t *DragTracker) Active() bool { return t.active }

// Start transitions idle -> active, snapshotting the pointer and the
// panel geometry at the moment of pointer-down.
func (t *DragTracker) Start(pointer Position, g Geometry) {
	t.active = true
	t.startPointer = pointer
	t.start = g
	t.last = g
}

// Move recomputes geometry from the delta between the current pointer
// and the pointer at Start. The delta applies identically to x and y.
// Returns false while idle.
func (t *DragTracker) Move(pointer Position) (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}
	g := t.start
	g.Position.X += pointer.X - t.startPointer.X
	g.Position.Y += pointer.Y - t.startPointer.Y
	if t.bounds != nil {
		g.Position = t.bounds.ClampPosition(g.Position, g.Size)
	}
	t.last = g
	return g, true
}

// End transitions active -> idle and returns the final geometry to
// commit. Returns false if no drag was in progress.
func (t *DragTracker) End(pointer Position) (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}
	g, _ := t.Move(pointer)
	t.active = false
	return g, true
}

// Cancel handles pointer-capture loss: the tracker must never stay
// active, and the last known geometry is what gets committed.
func (t *DragTracker) Cancel() (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}
	t.active = false
	return t.last, true
}

// ResizeTracker is the idle/active state machine for resizing one
// panel. Width and height deltas apply independently and are clamped to
// the configured constraints, with position compensation for west and
// north handles.
type ResizeTracker struct {
	constraints Constraints

	active       bool
	handle       Handle
	startPointer Position
	start        Geometry
	last         Geometry
}

// NewResizeTracker creates a tracker with the given constraints. Zero
// floors fall back to the package defaults.
func NewResizeTracker(c Constraints) *ResizeTracker {
	return &ResizeTracker{constraints: c.normalized()}
}

// Active reports whether a resize is in progress.
func (t *ResizeTracker) Active() bool { return t.active }

// Start transitions idle -> active for the given handle.
func (t *ResizeTracker) Start(handle Handle, pointer Position, g Geometry) {
	t.active = true
	t.handle = handle
	t.startPointer = pointer
	t.start = g
	t.last = g
}

// Move recomputes geometry from the pointer delta. Returns false while
// idle.
func (t *ResizeTracker) Move(pointer Position) (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}

	dx := pointer.X - t.startPointer.X
	dy := pointer.Y - t.startPointer.Y

	g := t.start
	g.Size.Width += dx * t.handle.horizontal()
	g.Size.Height += dy * t.handle.vertical()
	g.Size = t.constraints.ClampSize(g.Size)

	// West/north handles move the origin by however much the size
	// actually changed, so the opposite edge stays fixed even when the
	// size was clamped.
	if t.handle.horizontal() < 0 {
		g.Position.X = t.start.Position.X + (t.start.Size.Width - g.Size.Width)
	}
	if t.handle.vertical() < 0 {
		g.Position.Y = t.start.Position.Y + (t.start.Size.Height - g.Size.Height)
	}

	t.last = g
	return g, true
}

// End transitions active -> idle and returns the final geometry.
func (t *ResizeTracker) End(pointer Position) (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}
	g, _ := t.Move(pointer)
	t.active = false
	return g, true
}

// Cancel handles pointer-capture loss, committing the last known
// geometry.
func (t *ResizeTracker) Cancel() (Geometry, bool) {
	if !t.active {
		return Geometry{}, false
	}
	t.active = false
	return t.last, true
}
