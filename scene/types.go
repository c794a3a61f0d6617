package scene

import (
	"github.com/paulmach/orb"
)

// Surface is one indexed triangle surface from a mesh payload.
type Surface struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][3]int     `json:"faces"`
}

// MeshLayer groups the surfaces of one floor level plus its vertical offset.
type MeshLayer struct {
	Floor   *Surface `json:"floor,omitempty"`
	Walls   *Surface `json:"walls,omitempty"`
	Ceiling *Surface `json:"ceiling,omitempty"`
	ZOffset float64  `json:"z_offset"`
}

// RoomMeta describes a room boundary from mesh metadata. The polygon is an
// ordered boundary ring in backend plan coordinates.
type RoomMeta struct {
	Polygon orb.Ring `json:"polygon"`
	Name    string   `json:"name,omitempty"`
}

// MeshMetadata carries the per-mesh room table and the world offset that
// aligns backend coordinates with the mesh's local origin.
type MeshMetadata struct {
	Rooms       map[string]RoomMeta `json:"rooms"`
	WorldOffset Vec3                `json:"world_offset"`
}

// MeshData is the geometry portion of a mesh payload. Either the top-level
// floor/walls/ceiling surfaces are set (legacy single-layer form) or Layers
// is populated (multi-story form).
type MeshData struct {
	Floor    *Surface     `json:"floor,omitempty"`
	Walls    *Surface     `json:"walls,omitempty"`
	Ceiling  *Surface     `json:"ceiling,omitempty"`
	Layers   []MeshLayer  `json:"layers,omitempty"`
	Metadata MeshMetadata `json:"metadata"`
}

// MeshPayload is the envelope delivered by the backend for one generated mesh.
type MeshPayload struct {
	MeshID    string   `json:"mesh_id"`
	CreatedAt string   `json:"created_at"`
	Data      MeshData `json:"data"`
}

// Sensor is the live record for one sensor. Identity is the ID; every other
// field may change on update. Location is in backend coordinates and may be
// absent, in which case the sensor is tracked but never rendered as a marker.
type Sensor struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	IsAlert  bool      `json:"isAlert"`
	Location []float64 `json:"location,omitempty"`
	RoomID   string    `json:"roomId,omitempty"`
	RoomName string    `json:"roomName,omitempty"`
}

// HasLocation reports whether the sensor carries enough coordinates to be
// placed in the scene. Two components are accepted; the height defaults to 0.
func (s *Sensor) HasLocation() bool {
	return len(s.Location) >= 2
}

// Position returns the sensor location as a backend-frame Vec3.
func (s *Sensor) Position() Vec3 {
	p := Vec3{}
	if len(s.Location) >= 2 {
		p.X = s.Location[0]
		p.Y = s.Location[1]
	}
	if len(s.Location) >= 3 {
		p.Z = s.Location[2]
	}
	return p
}

// SensorUpdate is a partial patch for a sensor record. Nil pointer fields are
// retained from the existing record; IsAlert is always present on the wire.
type SensorUpdate struct {
	SensorID  string    `json:"sensor_id"`
	Type      *string   `json:"type,omitempty"`
	NewStatus *string   `json:"new_status,omitempty"`
	IsAlert   bool      `json:"is_alert"`
	Location  []float64 `json:"location,omitempty"`
	RoomID    *string   `json:"room_id,omitempty"`
	RoomName  *string   `json:"room_name,omitempty"`
}

// SecurityStatus is the informational arm/disarm event from the backend. It
// is logged but not consumed by the geometry pipeline.
type SecurityStatus struct {
	Status string `json:"status"`
}

// CameraMode selects the navigation controller.
type CameraMode string

const (
	CameraOrbit       CameraMode = "orbit"
	CameraFirstPerson CameraMode = "first-person"
)

// VisibilityConfig is the host-controlled display state. Applying it never
// rebuilds geometry; it only mutates materials and the camera mode.
type VisibilityConfig struct {
	Floor   bool `json:"floor" yaml:"floor"`
	Walls   bool `json:"walls" yaml:"walls"`
	Ceiling bool `json:"ceiling" yaml:"ceiling"`
	Sensors bool `json:"sensors" yaml:"sensors"`

	Wireframe bool `json:"wireframe" yaml:"wireframe"`

	// Surface opacities clamp to [0.1, 1]: a surface can be made see-through
	// but never fully vanish via opacity alone. Overlay opacity is driven by
	// animation and may reach 0.
	WallOpacity    float64 `json:"wallOpacity" yaml:"wallOpacity"`
	FloorOpacity   float64 `json:"floorOpacity" yaml:"floorOpacity"`
	CeilingOpacity float64 `json:"ceilingOpacity" yaml:"ceilingOpacity"`

	CameraMode CameraMode `json:"cameraMode" yaml:"cameraMode"`
}

// DefaultVisibility returns the display state used before the host pushes one.
func DefaultVisibility() VisibilityConfig {
	return VisibilityConfig{
		Floor:          true,
		Walls:          true,
		Ceiling:        false,
		Sensors:        true,
		WallOpacity:    0.85,
		FloorOpacity:   1.0,
		CeilingOpacity: 0.4,
		CameraMode:     CameraOrbit,
	}
}

// clampSurfaceOpacity enforces the asymmetric [0.1, 1] surface range.
func clampSurfaceOpacity(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}
