// Package pipeline implements the compiled-pipeline cache keyed by
// (mesh features, material features). Compilation happens once, before
// the renderer's frame loop starts; runtime compilation is forbidden
// since the renderer thread must never block on shader compilation
// mid-frame.
package pipeline

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/kestrelcore/engine/enginerr"
)

// VertexAttribute names a single canonical vertex attribute. Ordering is
// significant: Position < Normal < TexCoord < Tangent < JointIndices <
// JointWeights, matching the original's BufferUsage enum ordinals, which
// is also the byte order attributes pack into a vertex record.
type VertexAttribute int

const (
	AttrPosition VertexAttribute = iota
	AttrNormal
	AttrTexCoord
	AttrTangent
	AttrJointIndices
	AttrJointWeights
)

// AttributeSize returns the byte size of a single attribute element,
// matching the original's getAttributeSize.
func AttributeSize(a VertexAttribute) int {
	switch a {
	case AttrPosition, AttrNormal, AttrTangent:
		return 3 * 4
	case AttrTexCoord:
		return 2 * 4
	case AttrJointIndices:
		return 4 * 1
	case AttrJointWeights:
		return 4 * 4
	default:
		return 0
	}
}

// VertexLayout is the ordered list of attributes a mesh's vertex buffers
// carry, canonically sorted ascending by VertexAttribute.
type VertexLayout []VertexAttribute

// OffsetOf returns the byte offset of attr within a packed vertex record
// laid out according to layout, matching calcOffsetInVertex.
func OffsetOf(layout VertexLayout, attr VertexAttribute) int {
	sum := 0
	for _, a := range layout {
		if a < attr {
			sum += AttributeSize(a)
		}
	}
	return sum
}

// MeshFeatures is a bitset over a closed enum of mesh capabilities.
type MeshFeatures uint32

const (
	MeshIsInstanced MeshFeatures = 1 << iota
	MeshIsSkybox
	MeshIsAnimated
	MeshHasTangents
	MeshCastsShadow
)

// MaterialFeatures is a bitset over a closed enum of material capabilities.
type MaterialFeatures uint32

const (
	MaterialHasTransparency MaterialFeatures = 1 << iota
	MaterialHasTexture
	MaterialHasNormalMap
	MaterialHasCubeMap
	MaterialIsDoubleSided
)

// MeshFeatureSet pairs a mesh's vertex layout with its capability flags.
type MeshFeatureSet struct {
	VertexLayout string // canonical string form of the layout, used as a map key component
	Flags        MeshFeatures
}

// MaterialFeatureSet is a material's capability flags.
type MaterialFeatureSet struct {
	Flags MaterialFeatures
}

// EncodeLayout renders layout into a stable string key — the Go analogue
// of the original's byte-pattern hash over a fixed-size std::array.
func EncodeLayout(layout VertexLayout) string {
	b := make([]byte, len(layout))
	for i, a := range layout {
		b[i] = byte(a)
	}
	return string(b)
}

// Key identifies a compiled pipeline by the exact feature combination it
// was compiled for.
type Key struct {
	Mesh     MeshFeatureSet
	Material MaterialFeatureSet
}

// Defines derives the #define-style shader macros implied by a feature
// combination: INSTANCED, SKYBOX, NORMAL_MAPPING, TEXTURE_MAPPING,
// ANIMATED.
func Defines(key Key) []string {
	var defs []string
	if key.Mesh.Flags&MeshIsInstanced != 0 {
		defs = append(defs, "INSTANCED")
	}
	if key.Mesh.Flags&MeshIsSkybox != 0 {
		defs = append(defs, "SKYBOX")
	}
	if key.Mesh.Flags&MeshIsAnimated != 0 {
		defs = append(defs, "ANIMATED")
	}
	if key.Material.Flags&MaterialHasNormalMap != 0 {
		defs = append(defs, "NORMAL_MAPPING")
	}
	if key.Material.Flags&MaterialHasTexture != 0 {
		defs = append(defs, "TEXTURE_MAPPING")
	}
	return defs
}

// HashKey derives the stable integer the render graph sorts by, so that
// every draw node compiled from the same feature combination lands in the
// same pipeline-hash bucket and nodes group by pipeline during recording,
// matching spec.md's render graph key construction
// ([transparency, pipelineHash, meshId, materialId, ...]). Uses the same
// fnv-1a hash family entity.IdFromString already relies on for stable
// string-derived ids.
func HashKey(key Key) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key.Mesh.VertexLayout))
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(key.Mesh.Flags))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(key.Material.Flags))
	_, _ = h.Write(buf[:])
	return int64(h.Sum64())
}

// Compiled is an opaque handle to a backend-compiled pipeline object. The
// pipeline package never looks inside it; internal/wgpubackend produces
// and consumes the concrete value.
type Compiled any

// Compiler builds a backend pipeline object for a given key and its
// derived shader defines. internal/wgpubackend implements this against
// cogentcore/webgpu; tests can supply a fake.
type Compiler interface {
	Compile(key Key, defines []string) (Compiled, error)
}

// Cache maps (mesh features, material features) to a compiled pipeline.
// Sealed after the first call to Freeze; compilation after that point is
// forbidden, matching the renderer's "must complete before start()" rule.
type Cache struct {
	compiler Compiler
	sealed   bool
	entries  map[Key]Compiled
}

// New returns an empty, unsealed cache.
func New(compiler Compiler) *Cache {
	return &Cache{compiler: compiler, entries: make(map[Key]Compiled)}
}

// Compile compiles and stores the pipeline for key. Panics if called after
// Freeze — runtime compilation is a programming error, not a recoverable
// one, per spec's "forbidden" wording.
func (c *Cache) Compile(key Key) error {
	if c.sealed {
		panic(fmt.Sprintf("pipeline: Compile called after Freeze for key %+v", key))
	}
	compiled, err := c.compiler.Compile(key, Defines(key))
	if err != nil {
		return err
	}
	c.entries[key] = compiled
	return nil
}

// Freeze seals the cache; no further Compile calls are permitted. The
// renderer's worker calls it once Start has been signalled, after draining
// queued tasks and before its first frame.
func (c *Cache) Freeze() {
	c.sealed = true
}

// Get looks up the compiled pipeline for key. Fails with
// ErrFeatureSetUncompiled if no Compile call ever covered this exact
// feature combination.
func (c *Cache) Get(key Key) (Compiled, error) {
	compiled, ok := c.entries[key]
	if !ok {
		return nil, enginerr.ErrFeatureSetUncompiled
	}
	return compiled, nil
}
