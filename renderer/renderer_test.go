package renderer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/rendergraph"
	"github.com/kestrelcore/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct{ released bool }

func (f *fakeTarget) Release() { f.released = true }

type fakeAcquirer struct {
	mu            sync.Mutex
	acquired      int
	presented     int
	failNext      bool
	outdatedCount int
}

func (f *fakeAcquirer) AcquireFrame() (FrameTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return nil, errors.New("acquire failed")
	}
	if f.outdatedCount > 0 {
		f.outdatedCount--
		return nil, enginerr.ErrSwapchainOutdated
	}
	f.acquired++
	return &fakeTarget{}, nil
}

func (f *fakeAcquirer) Present() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presented++
}

type fakeRecorder struct {
	mu      sync.Mutex
	begun   int
	nodes   int
	submits int
}

func (f *fakeRecorder) Begin(target FrameTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun++
	return nil
}

func (f *fakeRecorder) RecordNode(key rendergraph.Key, node *rendergraph.Node, handle pipeline.Compiled) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes++
	return nil
}

func (f *fakeRecorder) Submit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return nil
}

func (f *fakeRecorder) nodeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes
}

type fakeCompiler struct{}

func (fakeCompiler) Compile(key pipeline.Key, defines []string) (pipeline.Compiled, error) {
	return "compiled", nil
}

func newTestRuntime(t *testing.T) (*Runtime, *resources.Store, *fakeRecorder, *fakeAcquirer) {
	store := resources.New()
	cache := pipeline.New(fakeCompiler{})
	recorder := &fakeRecorder{}
	acquirer := &fakeAcquirer{}
	r := New(nil, cache, store, recorder, acquirer, 2)
	return r, store, recorder, acquirer
}

func TestSubmit_RunsBeforeStartAndBlocksUntilDone(t *testing.T) {
	r, _, _, _ := newTestRuntime(t)
	ran := false
	err := r.Submit(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSubmit_AfterStartPanics(t *testing.T) {
	r, _, _, _ := newTestRuntime(t)
	r.Start()
	defer r.Stop()
	assert.Eventually(t, r.IsRunning, time.Second, time.Millisecond)
	assert.Panics(t, func() { _ = r.Submit(func() error { return nil }) })
}

func TestStartStop_DrivesRecorderAndAcquirer(t *testing.T) {
	r, store, recorder, acquirer := newTestRuntime(t)

	meshID, err := store.AddMesh(resources.Mesh{
		Layout:      pipeline.VertexLayout{pipeline.AttrPosition},
		Attributes:  []resources.Buffer{{Attribute: pipeline.AttrPosition, Data: make([]byte, 12*3)}},
		IndexBuffer: resources.Buffer{IsIndex: true, Data: make([]byte, 6)},
	})
	require.NoError(t, err)
	materialID := store.AddMaterial(resources.Material{})

	require.NoError(t, r.Submit(func() error {
		return r.cache.Compile(pipeline.Key{})
	}))

	state := r.WritableState()
	state.Graph.AddDefaultModel(false, 0, int64(meshID), int64(materialID), mgl32.Ident4())
	r.EndFrame()

	r.Start()
	assert.Eventually(t, func() bool { return recorder.nodeCount() > 0 }, time.Second, time.Millisecond)
	r.Stop()

	assert.False(t, r.IsRunning())
	assert.GreaterOrEqual(t, acquirer.presented, 1)
}

func TestRunLoop_SurfacesFatalAcquireErrorViaCheckError(t *testing.T) {
	r, _, _, acquirer := newTestRuntime(t)
	acquirer.failNext = true

	r.Start()
	assert.Eventually(t, func() bool { return r.CheckError() != nil }, time.Second, time.Millisecond)
}

func TestRunLoop_RecoversFromOutdatedSwapchainWithoutStopping(t *testing.T) {
	r, _, _, acquirer := newTestRuntime(t)
	acquirer.outdatedCount = 3

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		acquirer.mu.Lock()
		defer acquirer.mu.Unlock()
		return acquirer.acquired > 0
	}, time.Second, time.Millisecond)
	assert.Nil(t, r.CheckError())
	assert.True(t, r.IsRunning())
}
