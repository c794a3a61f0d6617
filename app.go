package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kwv/hometwin/scene"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *scene.Config
	Runtime    *scene.SceneRuntime
	MQTTClient *scene.MQTTClient

	// CLI Flags (effectively dependencies)
	ConfigFile string
	MeshFile   string
	OutputFile string
	Format     string
	HTTPPort   int
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.MeshFile = opts.MeshFile
	a.OutputFile = opts.OutputFile
	a.Format = opts.Format
	a.HTTPPort = opts.HTTPPort
}

// RunParseOnly parses the mesh payload and prints a summary
func (a *App) RunParseOnly() error {
	path := a.meshPath()
	if path == "" {
		return fmt.Errorf("no mesh file: pass --mesh or set meshFile in config")
	}

	payload, err := scene.ParseMeshFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	fmt.Printf("=== %s ===\n", payload.MeshID)
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Created: %s\n", payload.CreatedAt)

	layers := payload.Data.Layers
	if len(layers) == 0 {
		fmt.Println("Layers: 1 (single-layer payload)")
	} else {
		fmt.Printf("Layers: %d\n", len(layers))
	}

	rt := scene.NewSceneRuntime(scene.DefaultVisibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(payload)

	rooms := rt.Rooms()
	names := make([]string, 0, len(rooms))
	for _, room := range rooms {
		names = append(names, room.Name)
	}
	fmt.Printf("Rooms: %d", len(rooms))
	if len(names) > 0 {
		fmt.Printf(" [%s]", strings.Join(names, ", "))
	}
	fmt.Println()

	g, m := rt.Tracker().Live()
	fmt.Printf("Geometries: %d, Materials: %d\n", g, m)

	return nil
}

// RunRender loads the mesh, renders one scene snapshot, and exits
func (a *App) RunRender() error {
	path := a.meshPath()
	if path == "" {
		return fmt.Errorf("no mesh file: pass --mesh or set meshFile in config")
	}

	payload, err := scene.ParseMeshFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	rt := scene.NewSceneRuntime(a.visibility())
	defer rt.Close()
	rt.ApplyMeshUpdate(payload)
	if a.Config != nil {
		rt.SetRoomConfig(a.Config.Rooms)
	}

	outFile, err := os.Create(a.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", a.OutputFile, err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			log.Printf("Warning: error closing output file %s: %v", a.OutputFile, err)
		}
	}()

	renderer := scene.NewSnapshotRenderer(rt)
	switch a.Format {
	case "svg":
		if err := renderer.RenderToSVG(outFile); err != nil {
			return fmt.Errorf("rendering SVG: %w", err)
		}
	case "png":
		if err := renderer.RenderToPNG(outFile); err != nil {
			return fmt.Errorf("rendering PNG: %w", err)
		}
	default:
		return fmt.Errorf("invalid format: %s (must be svg or png)", a.Format)
	}

	fmt.Printf("Created snapshot: %s\n", a.OutputFile)
	return nil
}

// RunService starts the scene runtime with MQTT and HTTP attached
func (a *App) RunService() error {
	fmt.Println("Starting hometwin service...")

	config, err := scene.LoadConfig(a.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.Config = config
	log.Printf("Loaded config from %s", a.ConfigFile)

	if a.HTTPPort != 0 {
		config.HTTPPort = a.HTTPPort
	}

	// Scene runtime with display defaults from config
	rt := scene.NewSceneRuntime(config.Visibility)
	a.Runtime = rt
	rt.SetRoomConfig(config.Rooms)
	rt.OnRoomSelected(func(roomID string) {
		log.Printf("Room selected: %s", roomID)
	})

	// Initial mesh from disk if available
	if path := a.meshPath(); path != "" {
		payload, err := scene.ParseMeshFile(path)
		if err != nil {
			log.Printf("Warning: failed to load initial mesh %s: %v", path, err)
		} else {
			rt.ApplyMeshUpdate(payload)
			fmt.Printf("Loaded initial mesh %s from %s\n", payload.MeshID, path)
		}
	} else {
		log.Println("No initial mesh configured, waiting for updates")
	}

	if err := rt.Start(config.FrameRate); err != nil {
		return fmt.Errorf("starting render loop: %w", err)
	}

	// MQTT sensor stream
	mqttClient, err := scene.InitMQTT(config, func(ev *scene.SensorUpdate, err error) {
		if err != nil {
			log.Printf("Error receiving sensor update: %v", err)
			return
		}
		rt.ApplySensorUpdate(ev)
	})
	if err != nil {
		rt.Close()
		return fmt.Errorf("initializing MQTT: %w", err)
	}
	a.MQTTClient = mqttClient
	if mqttClient != nil {
		mqttClient.SetSecurityHandler(func(status scene.SecurityStatus) {
			log.Printf("Security system: %s", status.Status)
		})
	}

	// HTTP server
	httpServer := newHTTPServer(rt)
	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		fmt.Printf("HTTP server starting on %s\n", addr)
		if err := http.ListenAndServe(addr, httpServer); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	fmt.Println("\nService Running")
	fmt.Println("===============")
	if mqttClient != nil {
		fmt.Println("\nMQTT:")
		fmt.Printf("  Sensor updates:  %s\n", config.MQTT.SensorTopic)
		if config.MQTT.SecurityTopic != "" {
			fmt.Printf("  Security status: %s\n", config.MQTT.SecurityTopic)
		}
	}
	fmt.Printf("\nHTTP endpoints (port %d):\n", config.HTTPPort)
	fmt.Println("  GET /health       - Health check")
	fmt.Println("  GET /scene.svg    - Scene snapshot (SVG)")
	fmt.Println("  GET /scene.png    - Scene snapshot (PNG)")
	fmt.Println("  GET /mesh.gltf    - Scene geometry export")
	fmt.Println("  GET /rooms        - Aggregated room list")
	fmt.Println("  POST /select-room - Select a room")
	fmt.Println("  GET/PUT /visibility - Display settings")

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	rt.Close()
	fmt.Println("Service stopped")
	return nil
}

// meshPath resolves the mesh payload path from flags or config
func (a *App) meshPath() string {
	if a.MeshFile != "" {
		return a.MeshFile
	}
	if a.Config == nil {
		if config, err := scene.LoadConfig(a.ConfigFile); err == nil {
			a.Config = config
		}
	}
	if a.Config != nil {
		return a.Config.MeshFile
	}
	return ""
}

// visibility returns display defaults from config when loaded
func (a *App) visibility() scene.VisibilityConfig {
	if a.Config != nil {
		return a.Config.Visibility
	}
	return scene.DefaultVisibility()
}
