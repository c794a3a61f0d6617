package scene

import "sort"

// UnknownRoomID is the synthesized bucket for sensors whose room is not
// present in configuration or mesh metadata.
const UnknownRoomID = "unknown"

// RoomConfig is a room definition from home configuration.
type RoomConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// RoomInfo is the derived view of one room: resolved name, member sensors
// and how many of them are alerting.
type RoomInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Sensors    []Sensor `json:"sensors"`
	AlertCount int      `json:"alertCount"`
}

// AggregateRooms unions rooms from home configuration, mesh metadata and the
// sensor table. Config and mesh rooms take precedence over placeholders
// synthesized from orphan sensors; sensors with no resolvable room land in
// the unknown bucket. The result is sorted by id for stable output.
func AggregateRooms(configRooms []RoomConfig, meshRooms map[string]RoomMeta, sensors map[string]*Sensor) []RoomInfo {
	byID := make(map[string]*RoomInfo)

	for _, rc := range configRooms {
		byID[rc.ID] = &RoomInfo{ID: rc.ID, Name: rc.Name}
	}
	for id, meta := range meshRooms {
		if existing, ok := byID[id]; ok {
			if existing.Name == "" {
				existing.Name = meta.Name
			}
			continue
		}
		byID[id] = &RoomInfo{ID: id, Name: meta.Name}
	}

	for _, s := range sortedSensors(sensors) {
		roomID := s.RoomID
		if roomID == "" {
			roomID = UnknownRoomID
		}
		room, ok := byID[roomID]
		if !ok {
			// Placeholder synthesized from the sensor itself.
			room = &RoomInfo{ID: roomID, Name: s.RoomName}
			byID[roomID] = room
		}
		// Value copy: callers must not retain pointers into the live
		// sensor table once the runtime lock is released.
		room.Sensors = append(room.Sensors, *s)
		if s.IsAlert {
			room.AlertCount++
		}
	}

	out := make([]RoomInfo, 0, len(byID))
	for _, r := range byID {
		if r.Name == "" {
			r.Name = r.ID
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AlertRooms returns the set of room ids with at least one alerting sensor.
// Orphan alerting sensors alert the unknown bucket.
func AlertRooms(sensors map[string]*Sensor) map[string]bool {
	alerts := make(map[string]bool)
	for _, s := range sensors {
		if !s.IsAlert {
			continue
		}
		roomID := s.RoomID
		if roomID == "" {
			roomID = UnknownRoomID
		}
		alerts[roomID] = true
	}
	return alerts
}

func sortedSensors(sensors map[string]*Sensor) []*Sensor {
	out := make([]*Sensor, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
