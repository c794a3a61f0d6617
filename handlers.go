package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kwv/hometwin/scene"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(rt *scene.SceneRuntime) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			HasMesh   bool      `json:"hasMesh"`
			MeshID    string    `json:"meshId,omitempty"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			HasMesh:   rt.HasMesh(),
			MeshID:    rt.MeshID(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Scene snapshot endpoints
	mux.HandleFunc("/scene.svg", func(w http.ResponseWriter, r *http.Request) {
		if !rt.HasMesh() {
			http.Error(w, "No mesh loaded", http.StatusServiceUnavailable)
			return
		}

		renderer := scene.NewSnapshotRenderer(rt)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error encoding scene SVG: %v", err)
		}
	})

	mux.HandleFunc("/scene.png", func(w http.ResponseWriter, r *http.Request) {
		if !rt.HasMesh() {
			http.Error(w, "No mesh loaded", http.StatusServiceUnavailable)
			return
		}

		renderer := scene.NewSnapshotRenderer(rt)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("Error encoding scene PNG: %v", err)
		}
	})

	// Geometry export endpoint; ?format=glb for binary output
	mux.HandleFunc("/mesh.gltf", func(w http.ResponseWriter, r *http.Request) {
		if !rt.HasMesh() {
			http.Error(w, "No mesh loaded", http.StatusServiceUnavailable)
			return
		}

		binary := r.URL.Query().Get("format") == "glb"
		if binary {
			w.Header().Set("Content-Type", "model/gltf-binary")
		} else {
			w.Header().Set("Content-Type", "model/gltf+json")
		}
		w.Header().Set("Cache-Control", "no-cache")
		if err := rt.ExportGLTF(w, binary); err != nil {
			log.Printf("Error exporting glTF: %v", err)
		}
	})

	// Aggregated room list
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(rt.Rooms()); err != nil {
			log.Printf("Error encoding room list: %v", err)
		}
	})

	// Programmatic room selection
	mux.HandleFunc("/select-room", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			RoomID string `json:"room_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.RoomID == "" {
			http.Error(w, "room_id is required", http.StatusBadRequest)
			return
		}

		rt.SelectRoom(req.RoomID)
		w.WriteHeader(http.StatusNoContent)
	})

	// Pointer pick against room overlays
	mux.HandleFunc("/pick", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			X      float64 `json:"x"`
			Y      float64 `json:"y"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		roomID, ok := rt.Pick(req.X, req.Y, req.Width, req.Height)
		w.Header().Set("Content-Type", "application/json")
		resp := struct {
			RoomID string `json:"room_id,omitempty"`
			Hit    bool   `json:"hit"`
		}{RoomID: roomID, Hit: ok}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("Error encoding pick result: %v", err)
		}
	})

	// Display settings
	mux.HandleFunc("/visibility", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(rt.Visibility()); err != nil {
				log.Printf("Error encoding visibility: %v", err)
			}
		case http.MethodPut:
			var vis scene.VisibilityConfig
			if err := json.NewDecoder(r.Body).Decode(&vis); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			rt.ApplyVisibilityUpdate(vis)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Default route serves HTML page embedding the SVG snapshot
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>hometwin</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
html,body{width:100%;height:100%;overflow:hidden;background:#1a1a1a}
img{display:block;width:100vw;height:100vh;object-fit:contain}
</style>
</head>
<body>
<img src="/scene.svg" alt="Scene">
</body>
</html>`)
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}
