package scene

import "image/color"

// SurfaceKind identifies which surface of a layer a mesh renders.
type SurfaceKind string

const (
	SurfaceFloor   SurfaceKind = "floor"
	SurfaceWalls   SurfaceKind = "walls"
	SurfaceCeiling SurfaceKind = "ceiling"
)

// LayerMesh is one built surface mesh, tagged with its kind and layer index
// so later visibility passes can update it in bulk without rebuilding.
type LayerMesh struct {
	Kind     SurfaceKind
	Layer    int
	Offset   float64 // vertical offset of the owning layer, render Y
	Geometry *Geometry
	Material *Material
}

// LayeredModel owns the per-floor layer meshes of the active mesh payload.
// Rebuild disposes every previous mesh before building the next set, so at
// most one payload's geometry is ever live.
type LayeredModel struct {
	tracker *ResourceTracker
	meshes  []*LayerMesh
}

// NewLayeredModel creates an empty model on the given tracker.
func NewLayeredModel(tracker *ResourceTracker) *LayeredModel {
	return &LayeredModel{tracker: tracker}
}

// Meshes returns the live layer meshes.
func (m *LayeredModel) Meshes() []*LayerMesh {
	return m.meshes
}

// layersOf returns the payload's declared layers, treating the legacy
// single-layer form as one layer at zero offset.
func layersOf(data *MeshData) []MeshLayer {
	if len(data.Layers) > 0 {
		return data.Layers
	}
	if data.Floor == nil && data.Walls == nil && data.Ceiling == nil {
		return nil
	}
	return []MeshLayer{{Floor: data.Floor, Walls: data.Walls, Ceiling: data.Ceiling}}
}

// Rebuild replaces the model's meshes with ones built from the payload.
// Missing surfaces within a layer are skipped; empty surfaces build empty
// geometries that render nothing but dispose cleanly.
func (m *LayeredModel) Rebuild(data *MeshData, vis VisibilityConfig) {
	m.Dispose()
	if data == nil {
		return
	}

	for li, layer := range layersOf(data) {
		for _, sk := range []struct {
			kind    SurfaceKind
			surface *Surface
		}{
			{SurfaceFloor, layer.Floor},
			{SurfaceWalls, layer.Walls},
			{SurfaceCeiling, layer.Ceiling},
		} {
			if sk.surface == nil {
				continue
			}
			geom := BuildSurface(sk.surface, m.tracker)
			mat := NewMaterial(surfaceColor(sk.kind), 1, m.tracker)
			lm := &LayerMesh{
				Kind:     sk.kind,
				Layer:    li,
				Offset:   layer.ZOffset,
				Geometry: geom,
				Material: mat,
			}
			applySurfaceVisibility(lm, vis)
			m.meshes = append(m.meshes, lm)
		}
	}
}

// ApplyVisibility updates every mesh's material in place. No geometry is
// touched, so this is safe on every visibility tick.
func (m *LayeredModel) ApplyVisibility(vis VisibilityConfig) {
	for _, lm := range m.meshes {
		applySurfaceVisibility(lm, vis)
	}
}

func applySurfaceVisibility(lm *LayerMesh, vis VisibilityConfig) {
	switch lm.Kind {
	case SurfaceFloor:
		lm.Material.Visible = vis.Floor
		lm.Material.SetOpacity(clampSurfaceOpacity(vis.FloorOpacity))
	case SurfaceWalls:
		lm.Material.Visible = vis.Walls
		lm.Material.SetOpacity(clampSurfaceOpacity(vis.WallOpacity))
	case SurfaceCeiling:
		lm.Material.Visible = vis.Ceiling
		lm.Material.SetOpacity(clampSurfaceOpacity(vis.CeilingOpacity))
	}
	lm.Material.Wireframe = vis.Wireframe
}

func surfaceColor(kind SurfaceKind) color.RGBA {
	switch kind {
	case SurfaceFloor:
		return floorColor
	case SurfaceWalls:
		return wallColor
	default:
		return ceilingColor
	}
}

// Bounds returns the union box of all layer meshes at their offsets. Empty
// when no mesh is built; callers guard against framing an empty scene.
func (m *LayeredModel) Bounds() Bounds {
	b := EmptyBounds()
	for _, lm := range m.meshes {
		b = b.Union(lm.Geometry.Bounds.Translate(Vec3{Y: lm.Offset}))
	}
	return b
}

// Dispose releases every mesh's geometry and material.
func (m *LayeredModel) Dispose() {
	for _, lm := range m.meshes {
		lm.Geometry.Dispose()
		lm.Material.Dispose()
	}
	m.meshes = nil
}
