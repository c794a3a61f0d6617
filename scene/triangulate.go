package scene

import (
	"math"

	"github.com/paulmach/orb"
)

const triEpsilon = 1e-9

// NormalizeRing prepares a room boundary for triangulation: a trailing point
// equal to the first is dropped, consecutive duplicates are collapsed, and
// the original point order is otherwise preserved. A ring with fewer than 3
// distinct points afterwards is untriangulatable and nil is returned; the
// caller skips the room rather than failing the scene.
func NormalizeRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 {
		return nil
	}

	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	// Closing point duplicated from the start.
	if len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}

	if len(out) < 3 {
		return nil
	}
	return out
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < triEpsilon && math.Abs(a[1]-b[1]) < triEpsilon
}

// signedArea is the shoelace sum over the ring, positive for counter-clockwise.
func signedArea(ring orb.Ring) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// Triangulate ear-clips a normalized ring into index triples referring to
// the ring as passed in. Clockwise rings are reversed internally and the
// output indices remapped back, so either winding yields the same coverage.
// A bounded iteration guard keeps malformed or self-intersecting rings from
// looping forever; when it trips, the triangles found so far are returned.
func Triangulate(ring orb.Ring) [][3]int {
	n := len(ring)
	if n < 3 {
		return nil
	}

	reversed := signedArea(ring) < 0
	work := ring
	if reversed {
		work = make(orb.Ring, n)
		for i, p := range ring {
			work[n-1-i] = p
		}
	}

	// Active ring as indices into work.
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	var tris [][3]int
	emit := func(a, b, c int) {
		if reversed {
			a, b, c = n-1-a, n-1-b, n-1-c
		}
		tris = append(tris, [3]int{a, b, c})
	}

	guard := n * n
	for len(active) > 3 && guard > 0 {
		clipped := false
		for i := 0; i < len(active); i++ {
			guard--
			prev := active[(i-1+len(active))%len(active)]
			curr := active[i]
			next := active[(i+1)%len(active)]

			a, b, c := work[prev], work[curr], work[next]
			if cross2(a, b, c) <= triEpsilon {
				continue // reflex or collinear, not an ear
			}

			// An ear triangle must not contain any other active vertex.
			contains := false
			for _, other := range active {
				if other == prev || other == curr || other == next {
					continue
				}
				if pointInTriangle(work[other], a, b, c) {
					contains = true
					break
				}
			}
			if contains {
				continue
			}

			emit(prev, curr, next)
			active = append(active[:i], active[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// No ear found; the ring is malformed. Return the partial result.
			return tris
		}
	}

	if len(active) == 3 {
		emit(active[0], active[1], active[2])
	}
	return tris
}

// cross2 is the z-component of (b-a) x (c-a); positive when c lies to the
// left of a->b within a counter-clockwise ring.
func cross2(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// pointInTriangle tests strict containment in a counter-clockwise triangle.
// The epsilon keeps near-boundary points from blocking otherwise valid ears.
func pointInTriangle(p, a, b, c orb.Point) bool {
	return cross2(a, b, p) > triEpsilon &&
		cross2(b, c, p) > triEpsilon &&
		cross2(c, a, p) > triEpsilon
}
