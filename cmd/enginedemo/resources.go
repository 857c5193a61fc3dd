package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/renderer"
	"github.com/kestrelcore/engine/resources"
)

// float32Bytes packs vs little-endian, matching the layout
// internal/wgpubackend.VertexBufferLayout derives from pipeline.VertexLayout.
func float32Bytes(vs ...float32) []byte {
	out := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		bits := math.Float32bits(v)
		out = append(out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return out
}

func uint16Bytes(vs ...uint16) []byte {
	out := make([]byte, 0, 2*len(vs))
	for _, v := range vs {
		out = append(out, byte(v), byte(v>>8))
	}
	return out
}

// buildTriangle ingests one flat-shaded, untextured triangle so the demo
// has something to draw; it returns the mesh and material resource ids.
func buildTriangle(store *resources.Store) (resources.ID, resources.ID, error) {
	layout := pipeline.VertexLayout{pipeline.AttrPosition, pipeline.AttrNormal}

	positions := float32Bytes(
		0, 1, 0,
		-1, -1, 0,
		1, -1, 0,
	)
	normals := float32Bytes(
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
	)
	indices := uint16Bytes(0, 1, 2)

	mesh := resources.Mesh{
		Features: pipeline.MeshFeatureSet{VertexLayout: pipeline.EncodeLayout(layout)},
		Layout:   layout,
		Attributes: []resources.Buffer{
			{Attribute: pipeline.AttrPosition, Data: positions},
			{Attribute: pipeline.AttrNormal, Data: normals},
		},
		IndexBuffer: resources.Buffer{IsIndex: true, Data: indices},
	}
	meshID, err := store.AddMesh(mesh)
	if err != nil {
		return 0, 0, err
	}

	materialID := store.AddMaterial(resources.Material{
		BaseColour:      [4]float32{1, 0.4, 0.1, 1},
		MetallicFactor:  0,
		RoughnessFactor: 1,
	})
	return meshID, materialID, nil
}

func demoLight() renderer.Light {
	return renderer.Light{
		Colour:   mgl32.Vec3{1, 1, 1},
		Specular: mgl32.Vec3{1, 1, 1},
		Ambient:  0.1,
		WorldPos: mgl32.Vec3{2, 4, 3},
	}
}
