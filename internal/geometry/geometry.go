// Package geometry computes panel position and size deltas from pointer
// movement. It is pure: no store access, no event publication. Floor
// and bound invariants are enforced here, never post-hoc by a store.
package geometry

// Default size floors applied when a panel supplies no constraints.
const (
	DefaultMinWidth  = 200
	DefaultMinHeight = 120
)

// Position is a panel's top-left corner in container units (pixels).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a panel's extent in container units.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry is the full placement of one panel. Stores hand out copies;
// callers never mutate a shared instance.
type Geometry struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// Constraints bound a panel's size. Zero Max values mean unbounded.
type Constraints struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// DefaultConstraints returns the non-zero floors used when a panel
// does not configure its own.
func DefaultConstraints() Constraints {
	return Constraints{MinWidth: DefaultMinWidth, MinHeight: DefaultMinHeight}
}

// normalized fills in zero floors with the defaults.
func (c Constraints) normalized() Constraints {
	if c.MinWidth <= 0 {
		c.MinWidth = DefaultMinWidth
	}
	if c.MinHeight <= 0 {
		c.MinHeight = DefaultMinHeight
	}
	return c
}

// ClampSize forces s inside the constraints. Resizing past a floor
// yields exactly the floor value.
func (c Constraints) ClampSize(s Size) Size {
	n := c.normalized()
	if s.Width < n.MinWidth {
		s.Width = n.MinWidth
	}
	if n.MaxWidth > 0 && s.Width > n.MaxWidth {
		s.Width = n.MaxWidth
	}
	if s.Height < n.MinHeight {
		s.Height = n.MinHeight
	}
	if n.MaxHeight > 0 && s.Height > n.MaxHeight {
		s.Height = n.MaxHeight
	}
	return s
}

// Bounds is an optional container rectangle that dragging is confined
// to. A nil *Bounds means unbounded dragging.
type Bounds struct {
	Position Position
	Size     Size
}

// ClampPosition keeps a panel of the given size fully inside the
// bounds. Panels larger than the container pin to the container origin.
func (b Bounds) ClampPosition(p Position, s Size) Position {
	maxX := b.Position.X + b.Size.Width - s.Width
	maxY := b.Position.Y + b.Size.Height - s.Height
	if p.X > maxX {
		p.X = maxX
	}
	if p.X < b.Position.X {
		p.X = b.Position.X
	}
	if p.Y > maxY {
		p.Y = maxY
	}
	if p.Y < b.Position.Y {
		p.Y = b.Position.Y
	}
	return p
}
