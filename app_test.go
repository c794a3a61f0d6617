package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testMeshJSON = `{
	"mesh_id": "mesh-test",
	"created_at": "2025-03-01T10:00:00Z",
	"data": {
		"layers": [
			{
				"floor": {
					"vertices": [[0,0,0],[4,0,0],[4,0,3],[0,0,3]],
					"faces": [[0,1,2],[0,2,3]]
				}
			}
		],
		"metadata": {
			"rooms": {
				"living": {
					"name": "Living Room",
					"polygon": [[0,0],[4,0],[4,3],[0,3]]
				}
			}
		}
	}
}`

func writeTestMesh(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.json")
	if err := os.WriteFile(path, []byte(testMeshJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunParseOnly(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{MeshFile: writeTestMesh(t)})

	if err := app.RunParseOnly(); err != nil {
		t.Fatalf("RunParseOnly: %v", err)
	}
}

func TestRunParseOnlyMissingMesh(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{ConfigFile: filepath.Join(t.TempDir(), "none.yaml")})

	err := app.RunParseOnly()
	if err == nil || !strings.Contains(err.Error(), "no mesh file") {
		t.Errorf("error = %v", err)
	}
}

func TestRunParseOnlyBadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"mesh_id": "x", "data": {}}`), 0644); err != nil {
		t.Fatal(err)
	}

	app := NewApp()
	app.ApplyOptions(AppOptions{MeshFile: path})

	if err := app.RunParseOnly(); err == nil {
		t.Error("expected error for payload without surfaces")
	}
}

func TestRunRenderSVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.svg")
	app := NewApp()
	app.ApplyOptions(AppOptions{MeshFile: writeTestMesh(t), OutputFile: out, Format: "svg"})

	if err := app.RunRender(); err != nil {
		t.Fatalf("RunRender: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("output file is not SVG")
	}
}

func TestRunRenderPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.png")
	app := NewApp()
	app.ApplyOptions(AppOptions{MeshFile: writeTestMesh(t), OutputFile: out, Format: "png"})

	if err := app.RunRender(); err != nil {
		t.Fatalf("RunRender: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("output file is not PNG")
	}
}

func TestRunRenderInvalidFormat(t *testing.T) {
	app := NewApp()
	app.ApplyOptions(AppOptions{
		MeshFile:   writeTestMesh(t),
		OutputFile: filepath.Join(t.TempDir(), "scene.gif"),
		Format:     "gif",
	})

	err := app.RunRender()
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("error = %v", err)
	}
}

func TestMeshPathFromConfig(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeTestMesh(t)
	configPath := filepath.Join(dir, "config.yaml")
	config := "mqtt:\n  broker: tcp://localhost:1883\n  sensorTopic: home/sensors\nmeshFile: " + meshPath + "\n"
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	app := NewApp()
	app.ApplyOptions(AppOptions{ConfigFile: configPath})

	if got := app.meshPath(); got != meshPath {
		t.Errorf("meshPath() = %q, want %q", got, meshPath)
	}

	// An explicit --mesh flag wins over config.
	app.MeshFile = "explicit.json"
	if got := app.meshPath(); got != "explicit.json" {
		t.Errorf("meshPath() = %q, want flag value", got)
	}
}
