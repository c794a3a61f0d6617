package scene

import "math"

// Bounds is an axis-aligned bounding box in render coordinates.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds returns a box that is the identity for Extend.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether no point was ever added.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// IsFinite reports whether the box is usable for camera framing.
func (b Bounds) IsFinite() bool {
	return !b.IsEmpty() && b.Min.IsFinite() && b.Max.IsFinite()
}

// Extend grows the box to include p.
func (b Bounds) Extend(p Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union merges two boxes.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return Bounds{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the box center.
func (b Bounds) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box dimensions.
func (b Bounds) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxDimension returns the largest side length.
func (b Bounds) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// Translate shifts the box by d.
func (b Bounds) Translate(d Vec3) Bounds {
	if b.IsEmpty() {
		return b
	}
	return Bounds{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Geometry is a built triangle surface: contiguous position and normal
// buffers, an index buffer, and precomputed bounds. It models an uploaded
// GPU buffer set; Dispose must be called exactly once by the owner.
type Geometry struct {
	Positions []float64 // x,y,z triples
	Normals   []float64 // per-vertex, same layout as Positions
	Indices   []uint32
	Bounds    Bounds

	tracker  *ResourceTracker
	disposed bool
}

// BuildSurface builds a Geometry from a payload surface. Degenerate input
// (no vertices or no faces) yields an empty geometry that is still safely
// disposable; face indices out of range are dropped rather than trusted.
func BuildSurface(s *Surface, tracker *ResourceTracker) *Geometry {
	g := &Geometry{tracker: tracker, Bounds: EmptyBounds()}
	tracker.acquireGeometry()

	if s == nil || len(s.Vertices) == 0 || len(s.Faces) == 0 {
		return g
	}

	n := len(s.Vertices)
	g.Positions = make([]float64, 0, n*3)
	for _, v := range s.Vertices {
		g.Positions = append(g.Positions, v[0], v[1], v[2])
		g.Bounds = g.Bounds.Extend(Vec3{v[0], v[1], v[2]})
	}

	g.Indices = make([]uint32, 0, len(s.Faces)*3)
	for _, f := range s.Faces {
		if f[0] < 0 || f[0] >= n || f[1] < 0 || f[1] >= n || f[2] < 0 || f[2] >= n {
			continue
		}
		g.Indices = append(g.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}

	g.computeNormals()
	return g
}

// NewGeometry builds a Geometry directly from render-frame points and index
// triples. Used for overlays and marker glyphs.
func NewGeometry(points []Vec3, tris [][3]int, tracker *ResourceTracker) *Geometry {
	g := &Geometry{tracker: tracker, Bounds: EmptyBounds()}
	tracker.acquireGeometry()

	g.Positions = make([]float64, 0, len(points)*3)
	for _, p := range points {
		g.Positions = append(g.Positions, p.X, p.Y, p.Z)
		g.Bounds = g.Bounds.Extend(p)
	}
	g.Indices = make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		if t[0] < 0 || t[0] >= len(points) || t[1] < 0 || t[1] >= len(points) || t[2] < 0 || t[2] >= len(points) {
			continue
		}
		g.Indices = append(g.Indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	g.computeNormals()
	return g
}

// computeNormals derives smooth per-vertex normals by accumulating face
// normals and normalizing the sums.
func (g *Geometry) computeNormals() {
	g.Normals = make([]float64, len(g.Positions))
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := g.vertex(int(g.Indices[i]))
		b := g.vertex(int(g.Indices[i+1]))
		c := g.vertex(int(g.Indices[i+2]))

		fn := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range []uint32{g.Indices[i], g.Indices[i+1], g.Indices[i+2]} {
			g.Normals[idx*3] += fn.X
			g.Normals[idx*3+1] += fn.Y
			g.Normals[idx*3+2] += fn.Z
		}
	}
	for i := 0; i+2 < len(g.Normals); i += 3 {
		n := Vec3{g.Normals[i], g.Normals[i+1], g.Normals[i+2]}.Normalize()
		g.Normals[i], g.Normals[i+1], g.Normals[i+2] = n.X, n.Y, n.Z
	}
}

func (g *Geometry) vertex(i int) Vec3 {
	return Vec3{g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2]}
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of index triples.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Triangle returns the i-th triangle's corner points.
func (g *Geometry) Triangle(i int) (a, b, c Vec3) {
	return g.vertex(int(g.Indices[i*3])), g.vertex(int(g.Indices[i*3+1])), g.vertex(int(g.Indices[i*3+2]))
}

// Dispose releases the geometry's buffers. Repeated calls are no-ops.
func (g *Geometry) Dispose() {
	if g == nil || g.disposed {
		return
	}
	g.disposed = true
	g.Positions = nil
	g.Normals = nil
	g.Indices = nil
	g.tracker.releaseGeometry()
}

// Disposed reports whether Dispose has run.
func (g *Geometry) Disposed() bool {
	return g != nil && g.disposed
}
