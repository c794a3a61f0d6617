package scene

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// RoomSelectedHandler receives room ids resolved by picking or programmatic
// selection.
type RoomSelectedHandler func(roomID string)

// SceneRuntime is the top-level driver. It owns the layered model, the
// overlay and marker systems, the camera rig and the picking controller,
// and applies host-forwarded updates to them. The runtime holds no
// subscriptions of its own: the host pushes mesh, sensor and visibility
// changes through the Apply entry points.
//
// One mutex serializes the entry points against the render loop, realizing
// the single-logical-thread model: a mesh rebuild completes before the next
// tick can draw, and the alert set is always computed from a fully merged
// sensor table.
type SceneRuntime struct {
	mu sync.Mutex

	tracker  *ResourceTracker
	model    *LayeredModel
	overlays *RoomOverlaySystem
	markers  *SensorMarkerSystem
	camera   *CameraRig
	picker   *PickingController

	meshID      string
	meshRooms   map[string]RoomMeta
	worldOffset Vec3

	configRooms []RoomConfig
	sensors     map[string]*Sensor
	alertRooms  map[string]bool

	selectedRoom string
	visibility   VisibilityConfig

	onRoomSelected RoomSelectedHandler

	start    time.Time
	lastTick time.Time

	loopStop chan struct{}
	loopDone chan struct{}
	running  bool
	closed   bool
}

// NewSceneRuntime initializes an empty, mesh-less scene.
func NewSceneRuntime(vis VisibilityConfig) *SceneRuntime {
	tracker := NewResourceTracker()
	camera := NewCameraRig()
	camera.SetMode(vis.CameraMode)
	overlays := NewRoomOverlaySystem(tracker)

	return &SceneRuntime{
		tracker:    tracker,
		model:      NewLayeredModel(tracker),
		overlays:   overlays,
		markers:    NewSensorMarkerSystem(tracker),
		camera:     camera,
		picker:     NewPickingController(camera, overlays),
		sensors:    make(map[string]*Sensor),
		alertRooms: make(map[string]bool),
		visibility: vis,
		start:      time.Now(),
		lastTick:   time.Now(),
	}
}

// OnRoomSelected registers the selection handler. The handler runs outside
// the runtime lock and may call back into the runtime.
func (r *SceneRuntime) OnRoomSelected(fn RoomSelectedHandler) {
	r.mu.Lock()
	r.onRoomSelected = fn
	r.mu.Unlock()
}

// Start launches the render loop at the given frame rate.
func (r *SceneRuntime) Start(fps int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("scene runtime is closed")
	}
	if r.running {
		return fmt.Errorf("render loop already running")
	}
	if fps <= 0 {
		fps = cameraFPS
	}

	r.loopStop = make(chan struct{})
	r.loopDone = make(chan struct{})
	r.running = true
	r.lastTick = time.Now()

	go r.loop(time.Second / time.Duration(fps))
	return nil
}

func (r *SceneRuntime) loop(interval time.Duration) {
	defer close(r.loopDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.loopStop:
			return
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

// tick advances the camera controller and overlay animation one frame.
// Drawing is on demand (Snapshot/export); there is no displayed surface to
// present into.
func (r *SceneRuntime) tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dt := now.Sub(r.lastTick).Seconds()
	r.lastTick = now
	if dt > 0.1 {
		dt = 0.1
	}
	r.camera.Tick(dt)
	r.overlays.UpdateAnimation(now.Sub(r.start).Seconds(), r.alertRooms, r.selectedRoom)
}

// ApplyMeshUpdate replaces the active mesh: prior layer meshes and overlays
// are disposed as part of the rebuild, markers are re-synced against the
// new world offset, and the camera reframes to the new bounds.
func (r *SceneRuntime) ApplyMeshUpdate(payload *MeshPayload) {
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meshID = payload.MeshID
	r.meshRooms = payload.Data.Metadata.Rooms
	r.worldOffset = payload.Data.Metadata.WorldOffset

	r.model.Rebuild(&payload.Data, r.visibility)
	r.overlays.Rebuild(r.meshRooms, r.worldOffset)
	r.markers.Sync(r.sensors, r.visibility.Sensors, r.worldOffset)
	r.camera.FitToBounds(r.model.Bounds())

	log.Printf("scene: mesh %s loaded (%d layer meshes, %d overlays)",
		r.meshID, len(r.model.Meshes()), len(r.overlays.Overlays()))
}

// ApplySensorSnapshot replaces the sensor table and room configuration from
// a full home snapshot. Markers are reconciled and the alert set recomputed;
// the camera never moves on sensor data.
func (r *SceneRuntime) ApplySensorSnapshot(snap *HomeSnapshot) {
	if snap == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configRooms = snap.Rooms
	r.sensors = make(map[string]*Sensor, len(snap.Sensors))
	for id, s := range snap.Sensors {
		copied := *s
		r.sensors[id] = &copied
	}
	r.markers.Sync(r.sensors, r.visibility.Sensors, r.worldOffset)
	r.alertRooms = AlertRooms(r.sensors)
}

// ApplySensorUpdate merges a partial sensor patch, reconciles markers and
// recomputes the alert set. No geometry is rebuilt and no reframe happens.
func (r *SceneRuntime) ApplySensorUpdate(ev *SensorUpdate) {
	if ev == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	applyUpdate(r.sensors, ev)
	r.markers.Sync(r.sensors, r.visibility.Sensors, r.worldOffset)
	r.alertRooms = AlertRooms(r.sensors)
}

// ApplyVisibilityUpdate mutates display state in place: material visibility
// and opacity, wireframe, the marker gate, and the camera mode. Never
// rebuilds geometry.
func (r *SceneRuntime) ApplyVisibilityUpdate(vis VisibilityConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visibility = vis
	r.model.ApplyVisibility(vis)
	r.markers.Sync(r.sensors, vis.Sensors, r.worldOffset)
	r.camera.SetMode(vis.CameraMode)
}

// SetRoomConfig installs the declared room list. Declared rooms take
// precedence over mesh metadata during aggregation.
func (r *SceneRuntime) SetRoomConfig(rooms []RoomConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configRooms = rooms
}

// SelectRoom drives the same highlight state as a successful pick. Hosts use
// it to mirror list-side selection into the scene.
func (r *SceneRuntime) SelectRoom(roomID string) {
	r.mu.Lock()
	r.selectedRoom = roomID
	fn := r.onRoomSelected
	r.mu.Unlock()

	if fn != nil && roomID != "" {
		fn(roomID)
	}
}

// Pick resolves a pointer click against the overlay set. On a hit the room
// becomes selected and the handler fires; a miss changes nothing.
func (r *SceneRuntime) Pick(px, py, width, height float64) (string, bool) {
	r.mu.Lock()
	roomID, ok := r.picker.Pick(px, py, width, height)
	var fn RoomSelectedHandler
	if ok {
		r.selectedRoom = roomID
		fn = r.onRoomSelected
	}
	r.mu.Unlock()

	if fn != nil {
		fn(roomID)
	}
	return roomID, ok
}

// Rooms returns the aggregated room view built from configuration, mesh
// metadata and the sensor table. Sensor records are copied, so the result
// stays stable while updates keep arriving.
func (r *SceneRuntime) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return AggregateRooms(r.configRooms, r.meshRooms, r.sensors)
}

// Visibility returns the current display state.
func (r *SceneRuntime) Visibility() VisibilityConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visibility
}

// SelectedRoom returns the currently highlighted room id, if any.
func (r *SceneRuntime) SelectedRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedRoom
}

// HasMesh reports whether a mesh payload has been loaded.
func (r *SceneRuntime) HasMesh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meshID != ""
}

// MeshID returns the active mesh id, empty before the first load.
func (r *SceneRuntime) MeshID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meshID
}

// Tracker exposes the resource tracker for leak accounting.
func (r *SceneRuntime) Tracker() *ResourceTracker {
	return r.tracker
}

// Close stops the render loop before any resource is touched, then disposes
// everything in reverse order of acquisition. Safe to call once; repeated
// calls are no-ops.
func (r *SceneRuntime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	running := r.running
	r.running = false
	stop, done := r.loopStop, r.loopDone
	r.mu.Unlock()

	// Cancel the pending frame first so no tick runs against freed state.
	if running {
		close(stop)
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers.Dispose()
	r.overlays.Dispose()
	r.model.Dispose()
}
