// Package rendergraph implements the per-frame ordered multimap of draw
// nodes. Keys sort lexicographically by (transparency, pipeline hash, mesh
// id, material id, ...) so that walking the graph in order visits opaque
// work before transparent, grouped by pipeline then mesh then material —
// minimising GPU state changes during command recording.
//
// The original keys a trie ("TreeSet") where only fully-inserted keys
// (leaves) are findable and any prefix lookup misses. A Go map has no
// ordered iteration, and a literal trie of maps needs an extra sort pass
// per level to iterate lexicographically anyway, so this is realised as a
// single sorted slice searched and inserted with sort.Search — same
// lexicographic traversal, same "only leaves findable" behaviour, less
// code than porting the trie.
package rendergraph

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Key is an ordered tuple of integers; two keys compare lexicographically.
type Key []int64

func compareKeys(a, b Key) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func equalKeys(a, b Key) bool {
	return compareKeys(a, b) == 0
}

// NodeKind tags which Node variant is present.
type NodeKind int

const (
	DefaultModel NodeKind = iota
	InstancedModel
	Skybox
)

// Node is a tagged-union draw node. Which fields are meaningful depends on
// Kind — this mirrors the way the rest of the engine represents component
// variants (a tag plus the union of possible payloads) rather than an
// interface hierarchy with type assertions.
type Node struct {
	Kind NodeKind

	MeshID     int64
	MaterialID int64

	// DefaultModel
	ModelMatrix mgl32.Mat4

	// InstancedModel: transforms accumulate across stageInstance calls
	// within the same frame for a given (mesh, material).
	Instances []mgl32.Mat4
}

type entry struct {
	key  Key
	node *Node
}

// Graph is a per-frame sorted multimap from Key to *Node. It is not
// thread-safe; exactly one side (the writable triple-buffer slot) ever
// mutates a given Graph at a time.
type Graph struct {
	entries []entry
	nextCounter int64
}

// New returns an empty render graph.
func New() *Graph {
	return &Graph{}
}

// Reset clears the graph for reuse on the next frame, avoiding a fresh
// allocation for the common case of roughly the same node count frame to
// frame.
func (g *Graph) Reset() {
	g.entries = g.entries[:0]
	g.nextCounter = 0
}

func (g *Graph) search(key Key) int {
	return sort.Search(len(g.entries), func(i int) bool {
		return compareKeys(g.entries[i].key, key) >= 0
	})
}

// insert adds (key, node) keeping entries sorted by key. Keys are assumed
// unique by construction (nextUnique guarantees this for default models;
// instanced/skybox keys are looked up and merged by the caller before
// insert is reached).
func (g *Graph) insert(key Key, node *Node) {
	i := g.search(key)
	g.entries = append(g.entries, entry{})
	copy(g.entries[i+1:], g.entries[i:])
	g.entries[i] = entry{key: key, node: node}
}

// Find returns the node stored at exactly key, or (nil, false) if key was
// never inserted as a complete key — a prefix match never counts as a hit,
// matching the original's "only leaves are findable" trie semantics.
func (g *Graph) Find(key Key) (*Node, bool) {
	i := g.search(key)
	if i < len(g.entries) && equalKeys(g.entries[i].key, key) {
		return g.entries[i].node, true
	}
	return nil, false
}

// nextUnique returns a monotonically increasing counter used as the final
// key component for default models, so that repeated calls never merge.
func (g *Graph) nextUnique() int64 {
	g.nextCounter++
	return g.nextCounter
}

func transparencyFlag(transparent bool) int64 {
	if transparent {
		return 1
	}
	return 0
}

// AddDefaultModel inserts a per-instance draw node keyed
// [transparency, pipelineHash, meshId, materialId, counter++] — it never
// merges with any other call, even for an identical (mesh, material).
func (g *Graph) AddDefaultModel(transparent bool, pipelineHash, meshID, materialID int64, model mgl32.Mat4) {
	key := Key{transparencyFlag(transparent), pipelineHash, meshID, materialID, g.nextUnique()}
	g.insert(key, &Node{Kind: DefaultModel, MeshID: meshID, MaterialID: materialID, ModelMatrix: model})
}

// AddInstance appends transform to the instanced node keyed
// [transparency, pipelineHash, meshId, materialId], creating it on first
// use and merging into it on subsequent calls within the same frame.
func (g *Graph) AddInstance(transparent bool, pipelineHash, meshID, materialID int64, transform mgl32.Mat4) {
	key := Key{transparencyFlag(transparent), pipelineHash, meshID, materialID}
	if node, ok := g.Find(key); ok {
		node.Instances = append(node.Instances, transform)
		return
	}
	g.insert(key, &Node{
		Kind:       InstancedModel,
		MeshID:     meshID,
		MaterialID: materialID,
		Instances:  []mgl32.Mat4{transform},
	})
}

// SetSkybox inserts (or replaces) the frame's singleton skybox node, keyed
// [transparency, pipelineHash].
func (g *Graph) SetSkybox(transparent bool, pipelineHash, meshID, materialID int64) {
	key := Key{transparencyFlag(transparent), pipelineHash}
	if node, ok := g.Find(key); ok {
		node.MeshID = meshID
		node.MaterialID = materialID
		return
	}
	g.insert(key, &Node{Kind: Skybox, MeshID: meshID, MaterialID: materialID})
}

// Each walks every node in sorted key order — opaque before transparent,
// then grouped by pipeline, mesh, material.
func (g *Graph) Each(fn func(Key, *Node)) {
	for _, e := range g.entries {
		fn(e.key, e.node)
	}
}

// Len returns the number of nodes currently in the graph.
func (g *Graph) Len() int { return len(g.entries) }
