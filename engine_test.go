package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/config"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/rendergraph"
	"github.com/kestrelcore/engine/renderer"
	"github.com/kestrelcore/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCompiler struct{}

func (nopCompiler) Compile(key pipeline.Key, defines []string) (pipeline.Compiled, error) {
	return defines, nil
}

type nopRecorder struct{}

func (nopRecorder) Begin(target renderer.FrameTarget) error { return nil }
func (nopRecorder) RecordNode(key rendergraph.Key, node *rendergraph.Node, handle pipeline.Compiled) error {
	return nil
}
func (nopRecorder) Submit() error { return nil }

type nopTarget struct{}

func (nopTarget) Release() {}

type nopAcquirer struct{}

func (nopAcquirer) AcquireFrame() (renderer.FrameTarget, error) { return nopTarget{}, nil }
func (nopAcquirer) Present()                                    {}

func newTestEngine(t *testing.T) (*Engine, resources.ID, resources.ID) {
	cfg := config.Default()
	eng := NewEngine(cfg, nil, nopCompiler{}, nopRecorder{}, nopAcquirer{})

	meshID, err := eng.Resources().AddMesh(resources.Mesh{
		Layout:      pipeline.VertexLayout{pipeline.AttrPosition},
		Attributes:  []resources.Buffer{{Attribute: pipeline.AttrPosition, Data: make([]byte, 12*3)}},
		IndexBuffer: resources.Buffer{IsIndex: true, Data: make([]byte, 6)},
	})
	require.NoError(t, err)

	materialID := eng.Resources().AddMaterial(resources.Material{
		Features: pipeline.MaterialFeatureSet{Flags: pipeline.MaterialHasTransparency},
	})

	return eng, meshID, materialID
}

func TestBeginFrame_ResetsGraphAndLights(t *testing.T) {
	eng, meshID, materialID := newTestEngine(t)

	frame := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())
	require.NoError(t, frame.StageModel(meshID, materialID, mgl32.Ident4()))
	require.NoError(t, frame.StageLight(renderer.Light{}))

	frame2 := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())
	assert.Equal(t, 0, frame2.state.Graph.Len())
	assert.Empty(t, frame2.state.Lights)
}

func TestStageModel_DerivesTransparencyAndPipelineHash(t *testing.T) {
	eng, meshID, materialID := newTestEngine(t)
	frame := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())

	require.NoError(t, frame.StageModel(meshID, materialID, mgl32.Ident4()))

	mesh, err := eng.Resources().Mesh(meshID)
	require.NoError(t, err)
	material, err := eng.Resources().Material(materialID)
	require.NoError(t, err)
	wantHash := pipeline.HashKey(pipeline.Key{Mesh: mesh.Features, Material: material.Features})

	var found *rendergraph.Node
	frame.state.Graph.Each(func(key rendergraph.Key, node *rendergraph.Node) {
		if node.MeshID == int64(meshID) {
			found = node
			assert.Equal(t, int64(1), key[0], "material has MaterialHasTransparency set")
			assert.Equal(t, wantHash, key[1])
		}
	})
	require.NotNil(t, found)
}

func TestStageModel_UnknownMeshFails(t *testing.T) {
	eng, _, materialID := newTestEngine(t)
	frame := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())
	err := frame.StageModel(999, materialID, mgl32.Ident4())
	assert.Error(t, err)
}

func TestStageLight_FailsAtCapacity(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	frame := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())

	for i := 0; i < eng.cfg.MaxLights; i++ {
		require.NoError(t, frame.StageLight(renderer.Light{}))
	}
	assert.Error(t, frame.StageLight(renderer.Light{}))
}

func TestStageSkybox_SetsSingletonNode(t *testing.T) {
	eng, meshID, materialID := newTestEngine(t)
	frame := eng.BeginFrame(mgl32.Vec3{}, mgl32.Ident4(), mgl32.Ident4())

	require.NoError(t, frame.StageSkybox(meshID, materialID))
	require.NoError(t, frame.StageSkybox(meshID, materialID))
	assert.Equal(t, 1, frame.state.Graph.Len())
}
