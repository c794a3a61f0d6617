package scene

import "math"

// Alert pulse shape: sinusoidal, one cycle every ~0.9 s, opacity swinging
// between 0.18 and 0.63.
const (
	pulsePeriod = 0.9
	pulseMid    = 0.405
	pulseAmp    = 0.225

	selectedOpacity = 0.3
)

// RoomOverlay is the flat highlight/pick mesh for one room. Overlays stay
// resident once built; only their material opacity animates, so the pick
// target set is stable across sensor ticks.
type RoomOverlay struct {
	RoomID   string
	Geometry *Geometry
	Material *Material
}

// RoomOverlaySystem owns one overlay per triangulatable room polygon.
type RoomOverlaySystem struct {
	tracker  *ResourceTracker
	overlays map[string]*RoomOverlay
}

// NewRoomOverlaySystem creates an empty overlay system.
func NewRoomOverlaySystem(tracker *ResourceTracker) *RoomOverlaySystem {
	return &RoomOverlaySystem{
		tracker:  tracker,
		overlays: make(map[string]*RoomOverlay),
	}
}

// Overlays returns the live overlay table keyed by room id.
func (s *RoomOverlaySystem) Overlays() map[string]*RoomOverlay {
	return s.overlays
}

// Rebuild disposes all prior overlays and builds one per room whose polygon
// survives normalization and triangulation. Rooms that fail either step are
// omitted silently; a bad polygon never takes the scene down.
func (s *RoomOverlaySystem) Rebuild(rooms map[string]RoomMeta, worldOffset Vec3) {
	s.Dispose()

	for id, meta := range rooms {
		ring := NormalizeRing(meta.Polygon)
		if ring == nil {
			continue
		}
		tris := Triangulate(ring)
		if len(tris) == 0 {
			continue
		}

		// Room polygons are authored in backend plan coordinates; only the
		// horizontal world offset applies, plus the fixed lift off the floor.
		points := make([]Vec3, len(ring))
		for i, p := range ring {
			points[i] = Vec3{
				X: p[0] - worldOffset.X,
				Y: overlayLift,
				Z: p[1] - worldOffset.Y,
			}
		}

		mat := NewMaterial(highlightColor, 0, s.tracker)
		mat.Transparent = true
		s.overlays[id] = &RoomOverlay{
			RoomID:   id,
			Geometry: NewGeometry(points, tris, s.tracker),
			Material: mat,
		}
	}
}

// UpdateAnimation drives overlay opacity for one frame. Alerting rooms pulse
// in the warning color, the selected room holds a steady highlight, and all
// others are transparent but remain pickable.
func (s *RoomOverlaySystem) UpdateAnimation(t float64, alertRooms map[string]bool, selectedRoom string) {
	for id, ov := range s.overlays {
		switch {
		case alertRooms[id]:
			ov.Material.Color = warningColor
			ov.Material.Opacity = pulseMid + pulseAmp*math.Sin(2*math.Pi*t/pulsePeriod)
		case id == selectedRoom:
			ov.Material.Color = highlightColor
			ov.Material.Opacity = selectedOpacity
		default:
			ov.Material.Opacity = 0
		}
	}
}

// Dispose releases every overlay's geometry and material.
func (s *RoomOverlaySystem) Dispose() {
	for _, ov := range s.overlays {
		ov.Geometry.Dispose()
		ov.Material.Dispose()
	}
	s.overlays = make(map[string]*RoomOverlay)
}
