package scene

import "sync"

// ResourceTracker counts live renderer-owned resources. Every Geometry and
// Material registers itself on creation and deregisters on Dispose, so a
// rebuild that forgets to release its predecessors shows up as a growing
// live count. Each resource has exactly one owner; ownership never moves
// between the layered model, the overlay system, and the marker system.
type ResourceTracker struct {
	mu         sync.Mutex
	geometries int
	materials  int
}

// NewResourceTracker creates an empty tracker.
func NewResourceTracker() *ResourceTracker {
	return &ResourceTracker{}
}

func (t *ResourceTracker) acquireGeometry() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.geometries++
	t.mu.Unlock()
}

func (t *ResourceTracker) releaseGeometry() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.geometries--
	t.mu.Unlock()
}

func (t *ResourceTracker) acquireMaterial() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.materials++
	t.mu.Unlock()
}

func (t *ResourceTracker) releaseMaterial() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.materials--
	t.mu.Unlock()
}

// Live returns the current live geometry and material counts.
func (t *ResourceTracker) Live() (geometries, materials int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geometries, t.materials
}
