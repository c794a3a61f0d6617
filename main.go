package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries the parsed CLI flags
type AppOptions struct {
	ConfigFile string
	MeshFile   string
	OutputFile string
	Format     string
	ParseOnly  bool
	RenderOnly bool
	Serve      bool
	HTTPPort   int
}

// appRunner is the surface main dispatches to, mockable in tests
type appRunner interface {
	ApplyOptions(opts AppOptions)
	RunParseOnly() error
	RunRender() error
	RunService() error
}

func main() {
	fmt.Printf("hometwin version: %s\n", Version)

	if err := run(os.Args[1:], NewApp(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses CLI flags and dispatches to the app
func run(args []string, app appRunner, out io.Writer) error {
	fs := flag.NewFlagSet("hometwin", flag.ContinueOnError)
	fs.SetOutput(out)

	configFile := fs.String("config", "config.yaml", "Path to configuration file")
	meshFile := fs.String("mesh", "", "Path to mesh payload JSON (overrides config)")
	parseOnly := fs.Bool("parse-only", false, "Parse the mesh payload and exit (test mode)")
	renderOnly := fs.Bool("render", false, "Render a scene snapshot and exit")
	format := fs.String("format", "svg", "Snapshot format for --render: svg or png")
	outputFile := fs.String("output", "scene.svg", "Output file for --render mode")
	serve := fs.Bool("serve", false, "Run the scene service (MQTT + HTTP)")
	httpPort := fs.Int("http-port", 0, "HTTP server port (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := AppOptions{
		ConfigFile: *configFile,
		MeshFile:   *meshFile,
		OutputFile: *outputFile,
		Format:     *format,
		ParseOnly:  *parseOnly,
		RenderOnly: *renderOnly,
		Serve:      *serve,
		HTTPPort:   *httpPort,
	}
	app.ApplyOptions(opts)

	switch {
	case opts.ParseOnly:
		return app.RunParseOnly()
	case opts.RenderOnly:
		return app.RunRender()
	case opts.Serve:
		return app.RunService()
	}

	fmt.Fprintln(out, "hometwin scene service")
	fmt.Fprintln(out, "Use --parse-only to inspect a mesh payload")
	fmt.Fprintln(out, "Use --render to write a scene snapshot")
	fmt.Fprintln(out, "Use --serve to run the MQTT + HTTP service")
	fmt.Fprintln(out, "\nConfiguration:")
	fmt.Fprintln(out, "  config.yaml - MQTT settings, rooms, and display defaults")

	return nil
}
