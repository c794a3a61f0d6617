package scene

import (
	"fmt"
	"io"
	"sort"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF writes the current scene as a glTF 2.0 document: one node per
// layer mesh carrying its vertical offset, plus one node per sensor marker
// instancing a shared glyph mesh. Set binary for GLB output.
func (r *SceneRuntime) ExportGLTF(w io.Writer, binary bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meshID == "" {
		return fmt.Errorf("no mesh loaded, nothing to export")
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "hometwin"

	for i, lm := range r.model.Meshes() {
		if lm.Geometry.VertexCount() == 0 {
			continue
		}

		prim, err := writeGeometry(doc, lm.Geometry)
		if err != nil {
			return fmt.Errorf("writing layer %d %s geometry: %w", lm.Layer, lm.Kind, err)
		}
		prim.Material = gltf.Index(appendMaterial(doc, lm.Material))

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       fmt.Sprintf("layer%d_%s", lm.Layer, lm.Kind),
			Primitives: []*gltf.Primitive{prim},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        fmt.Sprintf("layer%d_%s_%d", lm.Layer, lm.Kind, i),
			Mesh:        gltf.Index(len(doc.Meshes) - 1),
			Translation: [3]float64{0, lm.Offset, 0},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	if err := appendMarkers(doc, r.markers); err != nil {
		return err
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glTF: %w", err)
	}
	return nil
}

// writeGeometry packs a geometry's buffers into the document and returns a
// triangle primitive referencing them.
func writeGeometry(doc *gltf.Document, g *Geometry) (*gltf.Primitive, error) {
	n := g.VertexCount()
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	for i := 0; i < n; i++ {
		positions[i] = [3]float32{
			float32(g.Positions[i*3]),
			float32(g.Positions[i*3+1]),
			float32(g.Positions[i*3+2]),
		}
		normals[i] = [3]float32{
			float32(g.Normals[i*3]),
			float32(g.Normals[i*3+1]),
			float32(g.Normals[i*3+2]),
		}
	}

	indices := make([]uint32, len(g.Indices))
	copy(indices, g.Indices)

	return &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, normals),
		},
	}, nil
}

// appendMaterial adds a PBR material mirroring a scene material and returns
// its index.
func appendMaterial(doc *gltf.Document, m *Material) int {
	metallic := 0.0
	roughness := 0.9
	mat := &gltf.Material{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{
				float64(m.Color.R) / 255,
				float64(m.Color.G) / 255,
				float64(m.Color.B) / 255,
				m.Opacity,
			},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		DoubleSided: true,
	}
	if m.Transparent {
		mat.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = append(doc.Materials, mat)
	return len(doc.Materials) - 1
}

// appendMarkers writes the shared marker glyph once and instances it with
// one translated node per sensor.
func appendMarkers(doc *gltf.Document, markers *SensorMarkerSystem) error {
	live := markers.Markers()
	if len(live) == 0 {
		return nil
	}

	glyph, err := writeGeometry(doc, markers.BaseGeometry())
	if err != nil {
		return fmt.Errorf("writing marker glyph: %w", err)
	}

	ids := make([]string, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// One mesh per distinct color, all sharing the glyph buffers.
	meshByColor := make(map[[4]uint8]int)
	for _, id := range ids {
		marker := live[id]
		c := marker.Material.Color
		key := [4]uint8{c.R, c.G, c.B, c.A}
		glyphMesh, ok := meshByColor[key]
		if !ok {
			prim := &gltf.Primitive{
				Indices:    glyph.Indices,
				Attributes: glyph.Attributes,
				Material:   gltf.Index(appendMaterial(doc, marker.Material)),
			}
			doc.Meshes = append(doc.Meshes, &gltf.Mesh{
				Name:       "sensor_marker",
				Primitives: []*gltf.Primitive{prim},
			})
			glyphMesh = len(doc.Meshes) - 1
			meshByColor[key] = glyphMesh
		}
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: "sensor_" + id,
			Mesh: gltf.Index(glyphMesh),
			Translation: [3]float64{
				marker.Position.X,
				marker.Position.Y,
				marker.Position.Z,
			},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return nil
}
