package geometry

import (
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"
)

// TestMain initializes the global zone manager for all tests in this
// package.
func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

// scanZone renders a minimal panel view with the marked zone and polls
// until the zone manager has registered it. Zone registration is
// asynchronous via a channel worker in bubblezone.
func scanZone(t *testing.T, zoneID, content string) *zone.ZoneInfo {
	t.Helper()

	view := zone.Mark(zoneID, content)
	var z *zone.ZoneInfo
	for retries := 0; retries < 100; retries++ {
		_ = zone.Scan(view)
		z = zone.Get(zoneID)
		if z != nil && !z.IsZero() {
			return z
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("zone %q was not registered", zoneID)
	return nil
}

func mouseMsg(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func TestMouseAdapter_DragFromHeaderZone(t *testing.T) {
	z := scanZone(t, HeaderZoneID("drag-1"), "== County Map ==")

	adapter := NewMouseAdapter("drag-1", NewDragTracker(nil), NewResizeTracker(Constraints{}))
	var committed Geometry
	adapter.OnDragEnd = func(g Geometry) { committed = g }

	current := Geometry{Position: Position{X: 10, Y: 5}, Size: Size{Width: 400, Height: 300}}

	_, ok := adapter.Update(mouseMsg(tea.MouseActionPress, tea.MouseButtonLeft, z.StartX, z.StartY), current)
	require.True(t, ok, "press inside the header zone must start a drag")

	g, ok := adapter.Update(mouseMsg(tea.MouseActionMotion, tea.MouseButtonLeft, z.StartX+7, z.StartY+3), current)
	require.True(t, ok)
	require.Equal(t, 17, g.Position.X)
	require.Equal(t, 8, g.Position.Y)
	require.Equal(t, current.Size, g.Size, "dragging never changes size")

	g, ok = adapter.Update(mouseMsg(tea.MouseActionRelease, tea.MouseButtonLeft, z.StartX+7, z.StartY+3), current)
	require.True(t, ok)
	require.Equal(t, g, committed, "release commits through OnDragEnd")
}

func TestMouseAdapter_ResizeFromHandleZone(t *testing.T) {
	z := scanZone(t, HandleZoneID("resize-1", HandleSouthEast), "+")

	adapter := NewMouseAdapter("resize-1", NewDragTracker(nil), NewResizeTracker(Constraints{}))
	var committed Geometry
	adapter.OnResizeEnd = func(g Geometry) { committed = g }

	current := Geometry{Position: Position{X: 0, Y: 0}, Size: Size{Width: 400, Height: 300}}

	_, ok := adapter.Update(mouseMsg(tea.MouseActionPress, tea.MouseButtonLeft, z.StartX, z.StartY), current)
	require.True(t, ok, "press on the resize handle zone must start a resize")

	g, ok := adapter.Update(mouseMsg(tea.MouseActionMotion, tea.MouseButtonLeft, z.StartX-10, z.StartY-20), current)
	require.True(t, ok)
	require.Equal(t, 390, g.Size.Width)
	require.Equal(t, 280, g.Size.Height)
	require.Equal(t, current.Position, g.Position, "south-east resize keeps the origin")

	g, ok = adapter.Update(mouseMsg(tea.MouseActionRelease, tea.MouseButtonLeft, z.StartX-10, z.StartY-20), current)
	require.True(t, ok)
	require.Equal(t, g, committed, "release commits through OnResizeEnd")
}

func TestMouseAdapter_PressOutsideZonesIgnored(t *testing.T) {
	z := scanZone(t, HeaderZoneID("miss-1"), "== Listings ==")

	adapter := NewMouseAdapter("miss-1", NewDragTracker(nil), NewResizeTracker(Constraints{}))
	current := Geometry{Size: Size{Width: 400, Height: 300}}

	_, ok := adapter.Update(mouseMsg(tea.MouseActionPress, tea.MouseButtonLeft, z.EndX+50, z.EndY+50), current)
	require.False(t, ok, "press outside every zone must not start an interaction")

	_, ok = adapter.Update(mouseMsg(tea.MouseActionMotion, tea.MouseButtonLeft, z.EndX+60, z.EndY+60), current)
	require.False(t, ok, "motion without an active interaction is a no-op")
}

func TestMouseAdapter_NonLeftButtonIgnored(t *testing.T) {
	z := scanZone(t, HeaderZoneID("button-1"), "== Detail ==")

	adapter := NewMouseAdapter("button-1", NewDragTracker(nil), NewResizeTracker(Constraints{}))
	current := Geometry{Size: Size{Width: 400, Height: 300}}

	_, ok := adapter.Update(mouseMsg(tea.MouseActionPress, tea.MouseButtonRight, z.StartX, z.StartY), current)
	require.False(t, ok, "only the left button starts drags and resizes")
}

func TestMouseAdapter_CancelCommitsLastGeometry(t *testing.T) {
	z := scanZone(t, HeaderZoneID("cancel-1"), "== County Map ==")

	adapter := NewMouseAdapter("cancel-1", NewDragTracker(nil), NewResizeTracker(Constraints{}))
	var committed Geometry
	var commits int
	adapter.OnDragEnd = func(g Geometry) {
		committed = g
		commits++
	}

	current := Geometry{Position: Position{X: 10, Y: 5}, Size: Size{Width: 400, Height: 300}}

	_, ok := adapter.Update(mouseMsg(tea.MouseActionPress, tea.MouseButtonLeft, z.StartX, z.StartY), current)
	require.True(t, ok)
	g, ok := adapter.Update(mouseMsg(tea.MouseActionMotion, tea.MouseButtonLeft, z.StartX+5, z.StartY+2), current)
	require.True(t, ok)

	adapter.Cancel()
	require.Equal(t, 1, commits)
	require.Equal(t, g, committed, "capture loss commits the last known geometry")

	_, ok = adapter.Update(mouseMsg(tea.MouseActionMotion, tea.MouseButtonLeft, z.StartX+90, z.StartY+90), current)
	require.False(t, ok, "adapter must be idle after cancel")
}
