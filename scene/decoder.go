package scene

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseMeshPayload decodes a backend mesh payload envelope. Both the legacy
// single-layer form (top-level floor/walls/ceiling) and the multi-layer form
// are accepted; a payload carrying neither is an error, since there is
// nothing to build.
func ParseMeshPayload(data []byte) (*MeshPayload, error) {
	var payload MeshPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing mesh payload: %w", err)
	}

	d := &payload.Data
	if len(d.Layers) == 0 && d.Floor == nil && d.Walls == nil && d.Ceiling == nil {
		return nil, fmt.Errorf("mesh payload %s has no surfaces", payload.MeshID)
	}
	return &payload, nil
}

// ParseMeshFile reads and decodes a mesh payload from disk.
func ParseMeshFile(path string) (*MeshPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh payload: %w", err)
	}
	return ParseMeshPayload(data)
}

// snapshotRoom mirrors the backend's home-configuration room shape.
type snapshotRoom struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Sensors []struct {
		ID       string    `json:"id"`
		Type     string    `json:"type"`
		Status   string    `json:"status"`
		Location []float64 `json:"location"`
	} `json:"sensors"`
}

// HomeSnapshot is the decoded home configuration: room definitions plus the
// flattened sensor table keyed by sensor id.
type HomeSnapshot struct {
	Rooms   []RoomConfig
	Sensors map[string]*Sensor
}

// ParseHomeSnapshot decodes the backend's room/sensor snapshot.
func ParseHomeSnapshot(data []byte) (*HomeSnapshot, error) {
	var rooms []snapshotRoom
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("parsing home snapshot: %w", err)
	}

	snap := &HomeSnapshot{Sensors: make(map[string]*Sensor)}
	for _, room := range rooms {
		snap.Rooms = append(snap.Rooms, RoomConfig{ID: room.ID, Name: room.Name})
		for _, s := range room.Sensors {
			if s.ID == "" {
				continue
			}
			snap.Sensors[s.ID] = &Sensor{
				ID:       s.ID,
				Type:     s.Type,
				Status:   s.Status,
				Location: s.Location,
				RoomID:   room.ID,
				RoomName: room.Name,
			}
		}
	}
	return snap, nil
}

// ParseSensorUpdate decodes a sensor update event.
func ParseSensorUpdate(data []byte) (*SensorUpdate, error) {
	var ev SensorUpdate
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("parsing sensor update: %w", err)
	}
	if ev.SensorID == "" {
		return nil, fmt.Errorf("sensor update missing sensor_id")
	}
	return &ev, nil
}

// applyUpdate merges a partial patch onto a sensor record, creating the
// record when the sensor is new. Unspecified fields are retained.
func applyUpdate(sensors map[string]*Sensor, ev *SensorUpdate) *Sensor {
	s, ok := sensors[ev.SensorID]
	if !ok {
		s = &Sensor{ID: ev.SensorID}
		sensors[ev.SensorID] = s
	}
	if ev.Type != nil {
		s.Type = *ev.Type
	}
	if ev.NewStatus != nil {
		s.Status = *ev.NewStatus
	}
	if ev.Location != nil {
		s.Location = ev.Location
	}
	if ev.RoomID != nil {
		s.RoomID = *ev.RoomID
	}
	if ev.RoomName != nil {
		s.RoomName = *ev.RoomName
	}
	s.IsAlert = ev.IsAlert
	return s
}
