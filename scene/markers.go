package scene

import (
	"image/color"
	"strings"
)

// Marker is the 3D glyph for one sensor. All markers share one base
// geometry; each carries its own material so it can be recolored without
// touching its neighbors.
type Marker struct {
	SensorID string
	Position Vec3
	Material *Material
}

// SyncStats reports what one reconciliation pass did. A second pass over an
// unchanged sensor list must report zero creations and removals.
type SyncStats struct {
	Created int
	Updated int
	Removed int
}

// SensorMarkerSystem keeps an id-keyed marker pool in lock-step with the
// sensor table. Sync is a set-reconciliation diff rather than a rebuild, so
// a high-frequency sensor stream causes no churn beyond the actual changes.
type SensorMarkerSystem struct {
	tracker *ResourceTracker
	base    *Geometry
	markers map[string]*Marker
}

// NewSensorMarkerSystem creates the system and its shared base glyph.
func NewSensorMarkerSystem(tracker *ResourceTracker) *SensorMarkerSystem {
	return &SensorMarkerSystem{
		tracker: tracker,
		base:    markerGlyph(tracker),
		markers: make(map[string]*Marker),
	}
}

// markerGlyph builds the shared octahedron used for every marker.
func markerGlyph(tracker *ResourceTracker) *Geometry {
	const r = 0.12
	points := []Vec3{
		{r, 0, 0}, {-r, 0, 0},
		{0, r, 0}, {0, -r, 0},
		{0, 0, r}, {0, 0, -r},
	}
	tris := [][3]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}
	return NewGeometry(points, tris, tracker)
}

// Markers returns the live marker table keyed by sensor id.
func (s *SensorMarkerSystem) Markers() map[string]*Marker {
	return s.markers
}

// Sync reconciles the marker set against the sensor table. The visibility
// flag gates the whole group: when false, every marker is removed. When
// true, each locatable sensor gets a marker created or updated in place,
// then markers whose sensor vanished are removed and their materials
// disposed.
func (s *SensorMarkerSystem) Sync(sensors map[string]*Sensor, visible bool, worldOffset Vec3) SyncStats {
	var stats SyncStats

	if !visible {
		for id, m := range s.markers {
			m.Material.Dispose()
			delete(s.markers, id)
			stats.Removed++
		}
		return stats
	}

	seen := make(map[string]bool, len(sensors))
	for id, sensor := range sensors {
		if !sensor.HasLocation() {
			continue
		}
		seen[id] = true

		pos := ToRender(sensor.Position(), worldOffset)
		pos.Y += markerLift
		c := markerColor(sensor)

		if m, ok := s.markers[id]; ok {
			m.Position = pos
			m.Material.Color = c
			stats.Updated++
			continue
		}
		s.markers[id] = &Marker{
			SensorID: id,
			Position: pos,
			Material: NewMaterial(c, 1, s.tracker),
		}
		stats.Created++
	}

	for id, m := range s.markers {
		if !seen[id] {
			m.Material.Dispose()
			delete(s.markers, id)
			stats.Removed++
		}
	}
	return stats
}

// markerColor picks the glyph color: alerting sensors are always the warning
// color; otherwise the first matching category keyword in the sensor type
// decides, falling back to the default.
func markerColor(sensor *Sensor) color.RGBA {
	if sensor.IsAlert {
		return warningColor
	}
	t := strings.ToLower(sensor.Type)
	for _, cat := range []struct {
		keyword string
		color   color.RGBA
	}{
		{"motion", markerMotionColor},
		{"door", markerDoorColor},
		{"smoke", markerSmokeColor},
		{"temperature", markerTemperatureColor},
	} {
		if strings.Contains(t, cat.keyword) {
			return cat.color
		}
	}
	return markerDefaultColor
}

// BaseGeometry returns the shared marker glyph.
func (s *SensorMarkerSystem) BaseGeometry() *Geometry {
	return s.base
}

// Dispose removes every marker and releases the shared glyph.
func (s *SensorMarkerSystem) Dispose() {
	for id, m := range s.markers {
		m.Material.Dispose()
		delete(s.markers, id)
	}
	s.base.Dispose()
}
