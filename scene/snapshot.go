package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SnapshotRenderer draws a top-down plan of the live scene as vector
// graphics: floor and wall footprints, room overlays at their current
// highlight state, and sensor markers.
type SnapshotRenderer struct {
	runtime    *SceneRuntime
	Scale      float64           // Canvas units per world meter
	Padding    float64           // Padding in world meters
	Resolution canvas.Resolution // Resolution for PNG output (default: 300 DPI)
}

// NewSnapshotRenderer creates a snapshot renderer with default settings
func NewSnapshotRenderer(rt *SceneRuntime) *SnapshotRenderer {
	return &SnapshotRenderer{
		runtime:    rt,
		Scale:      100.0, // 1m = 100 canvas units
		Padding:    0.5,   // 0.5m padding
		Resolution: canvas.DPI(300),
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// nrgbaAlpha applies an opacity to a base color and premultiplies, which the
// canvas library expects.
func nrgbaAlpha(c color.RGBA, opacity float64) color.RGBA {
	if opacity <= 0 {
		return color.RGBA{}
	}
	if opacity > 1 {
		opacity = 1
	}
	a := uint32(opacity * 255)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: uint8(a),
	}
}

// RenderToSVG writes the scene plan as an SVG to the provided writer
func (r *SnapshotRenderer) RenderToSVG(w io.Writer) error {
	r.runtime.mu.Lock()
	defer r.runtime.mu.Unlock()

	width, height, minX, minZ, err := r.planBounds()
	if err != nil {
		return err
	}

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minX, minZ, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the scene plan as a PNG to the provided writer.
// Room name labels are stamped onto the raster output.
func (r *SnapshotRenderer) RenderToPNG(w io.Writer) error {
	r.runtime.mu.Lock()
	defer r.runtime.mu.Unlock()

	width, height, minX, minZ, err := r.planBounds()
	if err != nil {
		return err
	}

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minX, minZ, width, height)
	r.drawRoomLabels(rast, minX, minZ, height)

	// Rasterizer implements draw.Image, which embeds image.Image
	return png.Encode(w, rast)
}

// planBounds computes the canvas dimensions from the model footprint,
// expanded to include markers. Callers hold the runtime lock.
func (r *SnapshotRenderer) planBounds() (width, height, minX, minZ float64, err error) {
	b := r.runtime.model.Bounds()
	for _, marker := range r.runtime.markers.Markers() {
		b = b.Extend(marker.Position)
	}
	if b.IsEmpty() {
		return 0, 0, 0, 0, fmt.Errorf("no mesh loaded, nothing to render")
	}

	size := b.Size()
	width = (size.X + 2*r.Padding) * r.Scale
	height = (size.Z + 2*r.Padding) * r.Scale
	return width, height, b.Min.X, b.Min.Z, nil
}

// toCanvas maps a render-space point onto the plan. The ground plane is XZ;
// layer elevation is discarded.
func (r *SnapshotRenderer) toCanvas(p Vec3, minX, minZ float64) (float64, float64) {
	cx := (p.X - minX + r.Padding) * r.Scale
	cy := (p.Z - minZ + r.Padding) * r.Scale
	return cx, cy
}

func (r *SnapshotRenderer) renderToCanvas(renderer canvasRenderer, minX, minZ, width, height float64) {
	// White background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Surface footprints, floors first so wall fills sit on top
	r.renderSurfaces(renderer, SurfaceFloor, minX, minZ)
	r.renderSurfaces(renderer, SurfaceCeiling, minX, minZ)
	r.renderSurfaces(renderer, SurfaceWalls, minX, minZ)

	// Room overlays at their current animation state
	for _, overlay := range r.runtime.overlays.Overlays() {
		mat := overlay.Material
		if !mat.Visible || mat.Opacity <= 0 {
			continue
		}
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaAlpha(mat.Color, mat.Opacity)}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}
		renderer.RenderPath(r.geometryPath(overlay.Geometry, minX, minZ), style, canvas.Identity)
	}

	// Sensor markers as circles
	for _, marker := range r.runtime.markers.Markers() {
		cx, cy := r.toCanvas(marker.Position, minX, minZ)

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: marker.Material.Color}
		style.Stroke = canvas.Paint{Color: canvas.Black}
		style.StrokeWidth = 1.5

		path := canvas.Circle(0.12 * r.Scale)
		path = path.Translate(cx, cy)
		renderer.RenderPath(path, style, canvas.Identity)
	}
}

// renderSurfaces fills the triangles of every layer mesh of the given kind
func (r *SnapshotRenderer) renderSurfaces(renderer canvasRenderer, kind SurfaceKind, minX, minZ float64) {
	for _, lm := range r.runtime.model.Meshes() {
		if lm.Kind != kind {
			continue
		}
		mat := lm.Material
		if !mat.Visible || mat.Opacity <= 0 {
			continue
		}

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaAlpha(mat.Color, mat.Opacity)}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}
		if mat.Wireframe {
			style.Fill = canvas.Paint{Color: canvas.Transparent}
			style.Stroke = canvas.Paint{Color: nrgbaAlpha(mat.Color, mat.Opacity)}
			style.StrokeWidth = 1.0
		}

		renderer.RenderPath(r.geometryPath(lm.Geometry, minX, minZ), style, canvas.Identity)
	}
}

// geometryPath projects every triangle of a geometry onto the plan as one path
func (r *SnapshotRenderer) geometryPath(g *Geometry, minX, minZ float64) *canvas.Path {
	path := &canvas.Path{}
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := g.Triangle(i)
		ax, ay := r.toCanvas(a, minX, minZ)
		bx, by := r.toCanvas(b, minX, minZ)
		cx, cy := r.toCanvas(c, minX, minZ)
		path.MoveTo(ax, ay)
		path.LineTo(bx, by)
		path.LineTo(cx, cy)
		path.Close()
	}
	return path
}

// drawRoomLabels stamps room names onto the raster image at each room's
// polygon centroid. Callers hold the runtime lock.
func (r *SnapshotRenderer) drawRoomLabels(img *rasterizer.Rasterizer, minX, minZ, height float64) {
	dpmm := r.Resolution.DPMM()
	offset := r.runtime.worldOffset

	for id, room := range r.runtime.meshRooms {
		ring := NormalizeRing(room.Polygon)
		if ring == nil {
			continue
		}

		var sx, sy float64
		for _, p := range ring {
			sx += p[0]
			sy += p[1]
		}
		n := float64(len(ring))
		center := Vec3{X: sx/n - offset.X, Z: sy/n - offset.Y}

		cx, cy := r.toCanvas(center, minX, minZ)
		// Canvas origin is bottom-left, image origin top-left
		px := int(cx * dpmm)
		py := int((height - cy) * dpmm)

		name := room.Name
		if name == "" {
			name = id
		}
		drawText(img, px-len(name)*3, py, name, color.RGBA{0, 0, 0, 255})
	}
}

// drawText renders text onto an image at the specified position
func drawText(img *rasterizer.Rasterizer, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
