package scene

import "math"

// PickingController resolves pointer clicks to room ids. Rays are cast only
// against the overlay meshes: picking is room-grained, so layer geometry
// and markers are never intersection candidates.
type PickingController struct {
	camera   *CameraRig
	overlays *RoomOverlaySystem
}

// NewPickingController wires the controller to the camera and overlay set.
func NewPickingController(camera *CameraRig, overlays *RoomOverlaySystem) *PickingController {
	return &PickingController{camera: camera, overlays: overlays}
}

// Pick converts viewport coordinates (origin top-left, width x height) to a
// ray and returns the room id of the nearest overlay hit. A miss returns
// ok=false and is not an error.
func (p *PickingController) Pick(px, py, width, height float64) (roomID string, ok bool) {
	if width <= 0 || height <= 0 {
		return "", false
	}
	ndcX := (px/width)*2 - 1
	ndcY := -((py/height)*2 - 1)
	origin, dir := p.camera.Ray(ndcX, ndcY)

	best := math.Inf(1)
	for id, ov := range p.overlays.Overlays() {
		g := ov.Geometry
		for i := 0; i < g.TriangleCount(); i++ {
			a, b, c := g.Triangle(i)
			if t, hit := rayTriangle(origin, dir, a, b, c); hit && t < best {
				best = t
				roomID = id
				ok = true
			}
		}
	}
	return roomID, ok
}

// rayTriangle is the Moller-Trumbore intersection test. Both triangle
// windings count as hits; overlays are flat and viewed from either side.
func rayTriangle(origin, dir, a, b, c Vec3) (float64, bool) {
	const eps = 1e-9

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det

	tvec := origin.Sub(a)
	u := tvec.Dot(pvec) * inv
	if u < -eps || u > 1+eps {
		return 0, false
	}

	qvec := tvec.Cross(e1)
	v := dir.Dot(qvec) * inv
	if v < -eps || u+v > 1+eps {
		return 0, false
	}

	t := e2.Dot(qvec) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}
