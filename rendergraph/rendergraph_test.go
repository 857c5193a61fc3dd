package rendergraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func zeroMat() mgl32.Mat4 { return mgl32.Mat4{} }

// TestIterationOrder reproduces the spec's ordering scenario directly
// against the sorted-slice storage, independent of which Node variant a
// key happens to carry: keys {3,5,2}, {2,1,4}, {3,5,6}, {3,7}, {3,5,3,1}
// inserted in that order (labelled A..E) must iterate as B, A, E, C, D.
func TestIterationOrder(t *testing.T) {
	g := New()

	label := func(l string) *Node { return &Node{MaterialID: int64(l[0])} }

	g.insert(Key{3, 5, 2}, label("A"))
	g.insert(Key{2, 1, 4}, label("B"))
	g.insert(Key{3, 5, 6}, label("C"))
	g.insert(Key{3, 7}, label("D"))
	g.insert(Key{3, 5, 3, 1}, label("E"))

	var order []string
	g.Each(func(k Key, n *Node) {
		order = append(order, string(rune(n.MaterialID)))
	})

	assert.Equal(t, []string{"B", "A", "E", "C", "D"}, order)
}

func TestFind_NonExistentKey_Misses(t *testing.T) {
	g := New()
	g.AddDefaultModel(false, 1, 2, 3, zeroMat())
	_, ok := g.Find(Key{9, 9, 9, 9, 9})
	assert.False(t, ok)
}

func TestFind_PrefixKey_Misses(t *testing.T) {
	g := New()
	g.insert(Key{3, 5, 2}, &Node{})
	_, ok := g.Find(Key{3, 5})
	assert.False(t, ok, "a strict prefix of a leaf key must not be findable")
}

func TestAddInstance_MergesSameMeshMaterial(t *testing.T) {
	g := New()
	g.AddInstance(false, 1, 2, 3, zeroMat())
	g.AddInstance(false, 1, 2, 3, zeroMat())

	node, ok := g.Find(Key{0, 1, 2, 3})
	assert.True(t, ok)
	assert.Len(t, node.Instances, 2)
}

func TestAddDefaultModel_NeverMerges(t *testing.T) {
	g := New()
	g.AddDefaultModel(false, 1, 2, 3, zeroMat())
	g.AddDefaultModel(false, 1, 2, 3, zeroMat())
	assert.Equal(t, 2, g.Len())
}

func TestSorting_OpaqueBeforeTransparent(t *testing.T) {
	g := New()
	g.AddDefaultModel(true, 1, 2, 3, zeroMat())
	g.AddDefaultModel(false, 1, 2, 3, zeroMat())

	var transparency []int64
	g.Each(func(k Key, n *Node) { transparency = append(transparency, k[0]) })
	assert.Equal(t, []int64{0, 1}, transparency)
}
