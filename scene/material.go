package scene

import "image/color"

// Semantic colors for the built scene. Surfaces get a fixed color per kind;
// overlays switch between the warning and highlight colors.
var (
	floorColor   = color.RGBA{R: 0xb0, G: 0xa8, B: 0x9c, A: 0xff}
	wallColor    = color.RGBA{R: 0xd8, G: 0xd4, B: 0xcc, A: 0xff}
	ceilingColor = color.RGBA{R: 0xf0, G: 0xee, B: 0xea, A: 0xff}

	warningColor   = color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 0xff}
	highlightColor = color.RGBA{R: 0x42, G: 0x85, B: 0xf4, A: 0xff}

	markerDefaultColor     = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	markerMotionColor      = color.RGBA{R: 0x7e, G: 0x57, B: 0xc2, A: 0xff}
	markerDoorColor        = color.RGBA{R: 0x26, G: 0xa6, B: 0x9a, A: 0xff}
	markerSmokeColor       = color.RGBA{R: 0x78, G: 0x90, B: 0x9c, A: 0xff}
	markerTemperatureColor = color.RGBA{R: 0xff, G: 0xa7, B: 0x26, A: 0xff}
)

// Material models the render state of one mesh: color, blending, wireframe
// and visibility. Like Geometry it is tracked and must be disposed by its
// single owner.
type Material struct {
	Color       color.RGBA
	Opacity     float64
	Transparent bool
	Wireframe   bool
	Visible     bool

	tracker  *ResourceTracker
	disposed bool
}

// NewMaterial creates a visible material with the given color and opacity.
// Opacity below 1 forces blending on.
func NewMaterial(c color.RGBA, opacity float64, tracker *ResourceTracker) *Material {
	tracker.acquireMaterial()
	return &Material{
		Color:       c,
		Opacity:     opacity,
		Transparent: opacity < 1,
		Visible:     true,
		tracker:     tracker,
	}
}

// SetOpacity updates opacity and keeps the blending flag consistent.
func (m *Material) SetOpacity(opacity float64) {
	m.Opacity = opacity
	m.Transparent = opacity < 1
}

// Dispose releases the material. Repeated calls are no-ops.
func (m *Material) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.disposed = true
	m.tracker.releaseMaterial()
}

// Disposed reports whether Dispose has run.
func (m *Material) Disposed() bool {
	return m != nil && m.disposed
}
