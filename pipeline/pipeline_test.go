package pipeline

import (
	"testing"

	"github.com/kestrelcore/engine/enginerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompiler struct {
	calls int
}

func (f *fakeCompiler) Compile(key Key, defines []string) (Compiled, error) {
	f.calls++
	return defines, nil
}

func TestOffsetOf_MatchesCanonicalOrdering(t *testing.T) {
	layout := VertexLayout{AttrPosition, AttrNormal, AttrTexCoord}
	assert.Equal(t, 0, OffsetOf(layout, AttrPosition))
	assert.Equal(t, 12, OffsetOf(layout, AttrNormal))
	assert.Equal(t, 24, OffsetOf(layout, AttrTexCoord))
}

func TestDefines_DerivesFromFeatureBits(t *testing.T) {
	key := Key{
		Mesh:     MeshFeatureSet{Flags: MeshIsInstanced | MeshIsSkybox},
		Material: MaterialFeatureSet{Flags: MaterialHasTexture | MaterialHasNormalMap},
	}
	defs := Defines(key)
	assert.Contains(t, defs, "INSTANCED")
	assert.Contains(t, defs, "SKYBOX")
	assert.Contains(t, defs, "NORMAL_MAPPING")
	assert.Contains(t, defs, "TEXTURE_MAPPING")
	assert.NotContains(t, defs, "ANIMATED")
}

func TestCache_GetMissingKeyFails(t *testing.T) {
	c := New(&fakeCompiler{})
	_, err := c.Get(Key{})
	assert.ErrorIs(t, err, enginerr.ErrFeatureSetUncompiled)
}

func TestCache_CompileThenGet(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	key := Key{Mesh: MeshFeatureSet{Flags: MeshIsInstanced}}
	require.NoError(t, c.Compile(key))
	assert.Equal(t, 1, fc.calls)

	got, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"INSTANCED"}, got)
}

func TestCache_CompileAfterFreezePanics(t *testing.T) {
	c := New(&fakeCompiler{})
	c.Freeze()
	assert.Panics(t, func() { _ = c.Compile(Key{}) })
}
