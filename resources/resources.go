// Package resources owns the GPU-visible resources the renderer draws
// with: textures, cube maps, meshes and materials, keyed by a stable,
// monotonically assigned ID. All mutation is expected to be funnelled
// through the renderer worker's single-threaded task queue (see
// package renderer) — Store itself holds no lock, mirroring the original's
// "not thread-safe by itself" resource store.
package resources

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/pipeline"
)

// ID is a stable, never-reused handle shared by every resource kind, the
// Go realisation of the original's single RenderItemId typedef.
type ID uint64

// idAllocator is a private, simpler cousin of entity.IdAllocator: resource
// ids never need string-derivation or a reserved set, just monotonic
// issuance.
type idAllocator struct{ next ID }

func (a *idAllocator) alloc() ID {
	a.next++
	return a.next
}

// Texture is raw RGBA8 image data. Decoding (PNG/JPEG/...) is out of
// scope; ingestion requires already-decoded bytes.
type Texture struct {
	Width, Height uint32
	Data          []byte // RGBA8, len == Width*Height*4
	DebugLabel    string
}

// CubeMap is six equal-dimension textures in +X,-X,+Y,-Y,+Z,-Z order.
type CubeMap struct {
	Faces      [6]ID
	DebugLabel string
}

// Buffer is one named attribute's or the index buffer's raw bytes.
type Buffer struct {
	Attribute pipeline.VertexAttribute
	IsIndex   bool
	Data      []byte
}

// Mesh is a feature set plus one buffer per vertex attribute and an index
// buffer. MaxInstances records the instance capacity; Store allocates no
// instance buffer for it.
type Mesh struct {
	Features      pipeline.MeshFeatureSet
	Layout        pipeline.VertexLayout
	Attributes    []Buffer
	IndexBuffer   Buffer
	MaxInstances  uint32
	DebugLabel    string
}

// VertexCount reports the number of vertices implied by the attribute
// buffer sizes, or an error if they disagree — every attribute buffer of
// a mesh must report the same count.
func (m Mesh) VertexCount() (int, error) {
	count := -1
	for _, b := range m.Attributes {
		size := pipeline.AttributeSize(b.Attribute)
		if size == 0 {
			continue
		}
		n := len(b.Data) / size
		if count == -1 {
			count = n
		} else if n != count {
			return 0, fmt.Errorf("resources: attribute %v has %d vertices, want %d", b.Attribute, n, count)
		}
	}
	if count == -1 {
		return 0, nil
	}
	return count, nil
}

// Material is a feature set, base colour, PBR factors and resource
// references to its textures.
type Material struct {
	Features        pipeline.MaterialFeatureSet
	BaseColour      [4]float32
	Texture         ID
	NormalMap       ID
	CubeMap         ID
	MetallicFactor  float32
	RoughnessFactor float32
	DebugLabel      string
}

// Store owns every GPU-visible resource by ID.
type Store struct {
	ids idAllocator

	textures  map[ID]Texture
	cubeMaps  map[ID]CubeMap
	meshes    map[ID]Mesh
	materials map[ID]Material
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		textures:  make(map[ID]Texture),
		cubeMaps:  make(map[ID]CubeMap),
		meshes:    make(map[ID]Mesh),
		materials: make(map[ID]Material),
	}
}

func debugLabel(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// AddTexture ingests RGBA8 data and returns its stable ID. Requires
// len(data) == width*height*4.
func (s *Store) AddTexture(width, height uint32, data []byte) (ID, error) {
	if uint32(len(data)) != width*height*4 {
		return 0, fmt.Errorf("resources: texture data length %d does not match %dx%d RGBA8", len(data), width, height)
	}
	id := s.ids.alloc()
	s.textures[id] = Texture{Width: width, Height: height, Data: data, DebugLabel: debugLabel("tex")}
	return id, nil
}

// AddCubeMap requires 6 previously-added textures of identical dimensions.
func (s *Store) AddCubeMap(faces [6]ID) (ID, error) {
	var w, h uint32
	for i, f := range faces {
		tex, ok := s.textures[f]
		if !ok {
			return 0, enginerr.ErrUnknownResource
		}
		if i == 0 {
			w, h = tex.Width, tex.Height
		} else if tex.Width != w || tex.Height != h {
			return 0, fmt.Errorf("resources: cube map face %d is %dx%d, want %dx%d", i, tex.Width, tex.Height, w, h)
		}
	}
	id := s.ids.alloc()
	s.cubeMaps[id] = CubeMap{Faces: faces, DebugLabel: debugLabel("cubemap")}
	return id, nil
}

// AddMesh requires every attribute buffer to report the same vertex count
// and the index buffer's element count to be a multiple of 3.
func (s *Store) AddMesh(m Mesh) (ID, error) {
	if _, err := m.VertexCount(); err != nil {
		return 0, err
	}
	const indexElemSize = 2 // u16, matching the original's fixed index type
	if len(m.IndexBuffer.Data)%indexElemSize != 0 {
		return 0, fmt.Errorf("resources: index buffer is not a whole number of u16 elements")
	}
	numIndices := len(m.IndexBuffer.Data) / indexElemSize
	if numIndices%3 != 0 {
		return 0, fmt.Errorf("resources: index count %d is not a multiple of 3", numIndices)
	}
	m.DebugLabel = debugLabel("mesh")
	id := s.ids.alloc()
	s.meshes[id] = m
	return id, nil
}

// AddMaterial stores m and returns its stable ID.
func (s *Store) AddMaterial(m Material) ID {
	m.DebugLabel = debugLabel("material")
	id := s.ids.alloc()
	s.materials[id] = m
	return id
}

// Texture, CubeMap, Mesh, Material lookups fail with ErrUnknownResource on
// a handle miss.

func (s *Store) Texture(id ID) (Texture, error) {
	t, ok := s.textures[id]
	if !ok {
		return Texture{}, enginerr.ErrUnknownResource
	}
	return t, nil
}

func (s *Store) CubeMap(id ID) (CubeMap, error) {
	c, ok := s.cubeMaps[id]
	if !ok {
		return CubeMap{}, enginerr.ErrUnknownResource
	}
	return c, nil
}

func (s *Store) Mesh(id ID) (Mesh, error) {
	m, ok := s.meshes[id]
	if !ok {
		return Mesh{}, enginerr.ErrUnknownResource
	}
	return m, nil
}

func (s *Store) Material(id ID) (Material, error) {
	m, ok := s.materials[id]
	if !ok {
		return Material{}, enginerr.ErrUnknownResource
	}
	return m, nil
}
