package scene

import "math"

// The backend authors positions with the height in the third component
// (plan X/Y plus Z-up). The render frame is Y-up. ToRender and FromRender
// convert between the two, including the translatable world origin offset.
// The mapping must be applied exactly once per datum: mesh vertices are
// authored render-ready and only need the whole-scene remap, room polygons
// take the 2D offset only, and sensor locations take the full conversion.

// Vec3 is a point or direction in either coordinate frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector, or the zero vector for degenerate input.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{math.Min(v.X, o.X), math.Min(v.Y, o.Y), math.Min(v.Z, o.Z)}
}

func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

// IsFinite reports whether all components are finite numbers.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// ToRender converts a backend-frame point to the render frame, subtracting
// the world offset. Backend Z becomes render Y (up), backend Y becomes
// render Z.
func ToRender(p, offset Vec3) Vec3 {
	return Vec3{
		X: p.X - offset.X,
		Y: p.Z - offset.Z,
		Z: p.Y - offset.Y,
	}
}

// FromRender is the inverse of ToRender.
func FromRender(p, offset Vec3) Vec3 {
	return Vec3{
		X: p.X + offset.X,
		Y: p.Z + offset.Y,
		Z: p.Y + offset.Z,
	}
}

// Vertical lifts keeping overlays and markers clear of the floor surface.
// Overlays sit just above the floor plane to avoid z-fighting; markers float
// a little higher so they read as glyphs rather than decals.
const (
	overlayLift = 0.02
	markerLift  = 0.25
)
