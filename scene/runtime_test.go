package scene

import (
	"encoding/json"
	"testing"
	"time"
)

func runtimeMeshPayload(t *testing.T) *MeshPayload {
	t.Helper()
	payload, err := ParseMeshPayload([]byte(layeredMeshJSON))
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func runtimeSnapshot() *HomeSnapshot {
	return &HomeSnapshot{
		Rooms: []RoomConfig{{ID: "living", Name: "Living Room"}},
		Sensors: map[string]*Sensor{
			"s1": {ID: "s1", Type: "motion_sensor", Location: []float64{2, 1.5, 0}, RoomID: "living"},
		},
	}
}

func TestRuntimeMeshUpdate(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()

	rt.ApplyMeshUpdate(runtimeMeshPayload(t))

	if !rt.HasMesh() {
		t.Fatal("runtime has no mesh after update")
	}
	if rt.MeshID() != "mesh-1" {
		t.Errorf("mesh id = %q", rt.MeshID())
	}
	if len(rt.model.Meshes()) != 2 {
		t.Errorf("got %d layer meshes, want 2", len(rt.model.Meshes()))
	}
	if rt.overlays.Overlays()["living"] == nil {
		t.Error("living room overlay not built")
	}

	// The camera frames the two-story bounds: center between the layers.
	center := rt.model.Bounds().Center()
	if !vecsEqual(rt.camera.Target(), center) {
		t.Errorf("camera target = %v, want %v", rt.camera.Target(), center)
	}
}

func TestRuntimeSensorSnapshot(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))

	rt.ApplySensorSnapshot(runtimeSnapshot())

	m := rt.markers.Markers()["s1"]
	if m == nil {
		t.Fatal("marker not created from snapshot")
	}
	// World offset (1, 2) applies: backend (2, 1.5) lands at render (1, -0.5).
	want := Vec3{X: 1, Y: markerLift, Z: -0.5}
	if !vecsEqual(m.Position, want) {
		t.Errorf("marker position = %v, want %v", m.Position, want)
	}
}

func TestRuntimeSensorSnapshotIsolated(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()

	snap := runtimeSnapshot()
	rt.ApplySensorSnapshot(snap)

	// Mutating the caller's snapshot must not leak into the runtime.
	snap.Sensors["s1"].IsAlert = true
	if rt.sensors["s1"].IsAlert {
		t.Error("runtime shares sensor records with the caller")
	}
}

func TestRuntimeSensorUpdate(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))
	rt.ApplySensorSnapshot(runtimeSnapshot())

	geomBefore := rt.model.Meshes()[0].Geometry
	targetBefore := rt.camera.Target()

	rt.ApplySensorUpdate(&SensorUpdate{SensorID: "s1", IsAlert: true})

	if !rt.alertRooms["living"] {
		t.Error("alert not propagated to room set")
	}
	if rt.markers.Markers()["s1"].Material.Color != warningColor {
		t.Error("alerting marker not recolored")
	}
	// A sensor tick neither rebuilds geometry nor moves the camera.
	if rt.model.Meshes()[0].Geometry != geomBefore {
		t.Error("sensor update rebuilt layer geometry")
	}
	if !vecsEqual(rt.camera.Target(), targetBefore) {
		t.Error("sensor update reframed the camera")
	}

	rt.ApplySensorUpdate(&SensorUpdate{SensorID: "s1"})
	if rt.alertRooms["living"] {
		t.Error("alert not cleared")
	}
}

func TestRuntimeVisibilityUpdate(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))
	rt.ApplySensorSnapshot(runtimeSnapshot())

	vis := DefaultVisibility()
	vis.Sensors = false
	vis.Floor = false
	vis.CameraMode = CameraFirstPerson
	rt.ApplyVisibilityUpdate(vis)

	if len(rt.markers.Markers()) != 0 {
		t.Error("markers remain while sensors hidden")
	}
	for _, lm := range rt.model.Meshes() {
		if lm.Kind == SurfaceFloor && lm.Material.Visible {
			t.Error("floor still visible")
		}
	}
	if rt.camera.Mode != CameraFirstPerson {
		t.Errorf("camera mode = %q", rt.camera.Mode)
	}
	if got := rt.Visibility(); got.Sensors || got.Floor {
		t.Errorf("stored visibility = %+v", got)
	}

	// Re-showing sensors restores the markers from the retained table.
	vis.Sensors = true
	rt.ApplyVisibilityUpdate(vis)
	if len(rt.markers.Markers()) != 1 {
		t.Error("markers not restored when sensors re-shown")
	}
}

func TestRuntimeSelection(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()

	var selected []string
	rt.OnRoomSelected(func(roomID string) {
		selected = append(selected, roomID)
	})

	rt.SelectRoom("living")
	if rt.SelectedRoom() != "living" {
		t.Errorf("selected room = %q", rt.SelectedRoom())
	}
	if len(selected) != 1 || selected[0] != "living" {
		t.Errorf("callback calls = %v", selected)
	}

	// Clearing the selection does not fire the callback.
	rt.SelectRoom("")
	if rt.SelectedRoom() != "" {
		t.Error("selection not cleared")
	}
	if len(selected) != 1 {
		t.Errorf("callback fired on clear: %v", selected)
	}
}

func TestRuntimePickSelects(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))

	// Aim straight down over the living room overlay.
	rt.camera.SetMode(CameraFirstPerson)
	rt.camera.fpPosition = Vec3{X: 1, Y: 5, Z: -0.5}
	rt.camera.fpPitch = -maxPitch
	rt.camera.fpYaw = 0

	var fired string
	rt.OnRoomSelected(func(roomID string) { fired = roomID })

	roomID, ok := rt.Pick(400, 300, 800, 600)
	if !ok {
		t.Fatal("pick missed the framed room")
	}
	if roomID != "living" {
		t.Errorf("picked %q, want living", roomID)
	}
	if rt.SelectedRoom() != "living" {
		t.Error("pick did not update the selection")
	}
	if fired != "living" {
		t.Errorf("callback got %q", fired)
	}
}

func TestRuntimeAnimationTick(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))
	rt.ApplySensorSnapshot(runtimeSnapshot())
	rt.ApplySensorUpdate(&SensorUpdate{SensorID: "s1", IsAlert: true})

	rt.tick(time.Now())

	ov := rt.overlays.Overlays()["living"]
	if ov.Material.Color != warningColor {
		t.Error("alerting overlay not recolored on tick")
	}
	if ov.Material.Opacity < pulseMid-pulseAmp-epsilon || ov.Material.Opacity > pulseMid+pulseAmp+epsilon {
		t.Errorf("pulse opacity %v outside envelope", ov.Material.Opacity)
	}
}

func TestRuntimeStartAndClose(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))
	rt.ApplySensorSnapshot(runtimeSnapshot())

	if err := rt.Start(120); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rt.Start(120); err == nil {
		t.Error("second Start did not fail")
	}

	// Let a few frames run against concurrent updates.
	for i := 0; i < 5; i++ {
		rt.ApplySensorUpdate(&SensorUpdate{SensorID: "s1", IsAlert: i%2 == 0})
		time.Sleep(5 * time.Millisecond)
	}

	rt.Close()
	rt.Close() // idempotent

	geoms, mats := rt.Tracker().Live()
	if geoms != 0 || mats != 0 {
		t.Errorf("live resources after close = %d/%d, want 0/0", geoms, mats)
	}

	if err := rt.Start(60); err == nil {
		t.Error("Start after Close did not fail")
	}
}

func TestRuntimeRoomsConcurrentWithUpdates(t *testing.T) {
	rt := NewSceneRuntime(DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(runtimeMeshPayload(t))
	rt.ApplySensorSnapshot(runtimeSnapshot())

	status := "open"
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			rt.ApplySensorUpdate(&SensorUpdate{
				SensorID:  "s1",
				NewStatus: &status,
				IsAlert:   i%2 == 0,
			})
		}
	}()

	// Encoding walks every sensor field, so a record shared with the
	// update path would trip the race detector here.
	for i := 0; i < 200; i++ {
		if _, err := json.Marshal(rt.Rooms()); err != nil {
			t.Fatalf("marshal rooms: %v", err)
		}
	}
	<-done

	rooms := rt.Rooms()
	for i := range rooms {
		for j := range rooms[i].Sensors {
			if rooms[i].Sensors[j].ID == "s1" {
				rooms[i].Sensors[j].Status = "mutated"
			}
		}
	}
	if s, ok := rt.sensors["s1"]; !ok || s.Status == "mutated" {
		t.Error("room view shares sensor records with the runtime table")
	}
}
