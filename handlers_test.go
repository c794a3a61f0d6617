package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kwv/hometwin/scene"
)

func testRuntime(t *testing.T) *scene.SceneRuntime {
	t.Helper()
	rt := scene.NewSceneRuntime(scene.DefaultVisibility())
	t.Cleanup(rt.Close)

	payload, err := scene.ParseMeshPayload([]byte(testMeshJSON))
	if err != nil {
		t.Fatal(err)
	}
	rt.ApplyMeshUpdate(payload)
	return rt
}

func TestHealthEndpoint(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status struct {
		Status  string `json:"status"`
		HasMesh bool   `json:"hasMesh"`
		MeshID  string `json:"meshId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if status.Status != "ok" || !status.HasMesh || status.MeshID != "mesh-test" {
		t.Errorf("health = %+v", status)
	}
}

func TestSceneSnapshotEndpoints(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	t.Run("svg", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scene.svg", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("content type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "<svg") {
			t.Error("body is not SVG")
		}
	})

	t.Run("png", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scene.png", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.Bytes()
		if len(body) < 8 || string(body[1:4]) != "PNG" {
			t.Error("body is not PNG")
		}
	})
}

func TestSnapshotWithoutMesh(t *testing.T) {
	rt := scene.NewSceneRuntime(scene.DefaultVisibility())
	t.Cleanup(rt.Close)
	server := newHTTPServer(rt)

	for _, path := range []string{"/scene.svg", "/scene.png", "/mesh.gltf"} {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

func TestMeshExportEndpoint(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mesh.gltf", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "model/gltf+json" {
			t.Errorf("content type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "POSITION") {
			t.Error("glTF body missing geometry")
		}
	})

	t.Run("glb", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mesh.gltf?format=glb", nil))

		if ct := rec.Header().Get("Content-Type"); ct != "model/gltf-binary" {
			t.Errorf("content type = %q", ct)
		}
		if body := rec.Body.Bytes(); len(body) < 4 || string(body[:4]) != "glTF" {
			t.Error("body lacks GLB magic")
		}
	})
}

func TestRoomsEndpoint(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var rooms []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&rooms); err != nil {
		t.Fatalf("decoding rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "living" || rooms[0].Name != "Living Room" {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestSelectRoomEndpoint(t *testing.T) {
	rt := testRuntime(t)
	server := newHTTPServer(rt)

	t.Run("valid selection", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/select-room", strings.NewReader(`{"room_id": "living"}`))
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if rt.SelectedRoom() != "living" {
			t.Errorf("selected room = %q", rt.SelectedRoom())
		}
	})

	t.Run("missing room id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/select-room", strings.NewReader(`{}`))
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/select-room", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestPickEndpoint(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	t.Run("center hit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/pick",
			strings.NewReader(`{"x": 400, "y": 300, "width": 800, "height": 600}`))
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp struct {
			RoomID string `json:"room_id"`
			Hit    bool   `json:"hit"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding pick response: %v", err)
		}
		if !resp.Hit || resp.RoomID != "living" {
			t.Errorf("pick = %+v", resp)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/pick", strings.NewReader("nope"))
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestVisibilityEndpoint(t *testing.T) {
	rt := testRuntime(t)
	server := newHTTPServer(rt)

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visibility", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var vis scene.VisibilityConfig
		if err := json.NewDecoder(rec.Body).Decode(&vis); err != nil {
			t.Fatalf("decoding visibility: %v", err)
		}
		if !vis.Floor || !vis.Walls || vis.Ceiling {
			t.Errorf("visibility = %+v", vis)
		}
	})

	t.Run("put", func(t *testing.T) {
		body := `{"floor": true, "walls": false, "sensors": true, "wallOpacity": 0.5, "floorOpacity": 1, "ceilingOpacity": 0.4, "cameraMode": "orbit"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/visibility", strings.NewReader(body))
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rt.Visibility(); got.Walls || got.WallOpacity != 0.5 {
			t.Errorf("visibility after put = %+v", got)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/visibility", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestIndexPage(t *testing.T) {
	server := newHTTPServer(testRuntime(t))

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/scene.svg") {
		t.Error("index page does not embed the scene snapshot")
	}

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}
