// Package renderer implements the dedicated render thread: resource and
// pipeline setup happen via blocking task submission before Start; once
// running, the loop owns the thread exclusively and drains the triple
// buffer written by the simulation thread every frame.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/enginelog"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/rendergraph"
	"github.com/kestrelcore/engine/resources"
	"github.com/kestrelcore/engine/triplebuffer"
)

// MaxLights is the default per-frame light capacity (config.Default uses
// the same value). Frame.StageLight enforces config.Config.MaxLights, not
// this constant.
const MaxLights = 4

// Light is a single point/directional light snapshot staged for a frame.
type Light struct {
	Colour, Specular mgl32.Vec3
	Ambient          float32
	WorldPos         mgl32.Vec3
}

// RenderState is one triple-buffered frame snapshot: the sorted render
// graph for that frame, lighting uniforms, and camera parameters. The
// reverse lookup the spec mentions ("Key -> node*, only valid on the
// writable slot, reset each frame") is simply rendergraph.Graph.Find —
// Graph already keeps entries sorted and addressable by key, so no
// separate lookup structure is needed.
type RenderState struct {
	Graph      *rendergraph.Graph
	Lights     []Light
	CameraPos  mgl32.Vec3
	CameraView mgl32.Mat4
	CameraProj mgl32.Mat4
}

func newRenderState() RenderState {
	return RenderState{Graph: rendergraph.New()}
}

// FrameAcquirer abstracts the swapchain image acquisition + present steps
// so the frame loop below is testable without a real GPU device.
// internal/wgpubackend.Device satisfies this.
type FrameAcquirer interface {
	AcquireFrame() (FrameTarget, error)
	Present()
}

// FrameTarget is the per-frame render target (a texture view, in wgpu
// terms). Defined as an interface here so tests can supply a fake;
// internal/wgpubackend wraps *wgpu.TextureView to satisfy it.
type FrameTarget interface {
	Release()
}

// CommandRecorder records and submits one frame's draw calls by walking
// the sorted render graph, one node at a time, in order — this is the
// "recordCommandBuffer" step; which GPU calls it issues is a backend
// concern injected here so this package can stay free of the wgpu
// dependency and unit-testable.
type CommandRecorder interface {
	Begin(target FrameTarget) error
	RecordNode(key rendergraph.Key, node *rendergraph.Node, pipelineHandle pipeline.Compiled) error
	Submit() error
}

// task is a closure submitted to the worker thread before Start, along
// with a channel the submitter blocks on for completion — the Go
// realisation of "a future returned by the worker thread".
type task struct {
	fn   func() error
	done chan error
}

// Runtime is the dedicated render thread: owns the GPU device (via the
// Compiler/CommandRecorder it's given), the pipeline cache, the resource
// store, and a triple-buffered RenderState.
type Runtime struct {
	logger   enginelog.Logger
	cache    *pipeline.Cache
	store    *resources.Store
	recorder CommandRecorder
	acquirer FrameAcquirer

	// maxFramesInFlight is the modulus of the render loop's frame counter,
	// which is reported in render-loop errors; the counter is not passed
	// to CommandRecorder. wgpu's queue already serialises submission, so
	// there is no fence wait here and one frame is recorded at a time.
	maxFramesInFlight int

	states *triplebuffer.Buffer[RenderState]

	tasks    chan task
	startCh  chan struct{}
	started  bool
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	errMu sync.Mutex
	err   error
}

// New builds a Runtime and immediately launches its worker goroutine in
// task-draining mode: Submit calls are serviced from construction time,
// not only once Start runs, so resource uploads and pipeline compilation
// submitted before Start never block waiting for a loop that hasn't
// started yet. Start later signals the same goroutine to drain whatever
// is left in the queue and fall through into the per-frame loop.
func New(logger enginelog.Logger, cache *pipeline.Cache, store *resources.Store, recorder CommandRecorder, acquirer FrameAcquirer, maxFramesInFlight int) *Runtime {
	if logger == nil {
		logger = enginelog.NewNop()
	}
	r := &Runtime{
		logger:            logger,
		cache:             cache,
		store:             store,
		recorder:          recorder,
		acquirer:          acquirer,
		maxFramesInFlight: maxFramesInFlight,
		states:            triplebuffer.New(newRenderState()),
		tasks:             make(chan task, 64),
		startCh:           make(chan struct{}),
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
	go r.workerLoop()
	return r
}

// Submit runs fn on the worker thread and blocks until it completes.
// Panics if called after Start — the task queue is closed to foreign
// submissions once the render loop begins, per spec's threaded-startup
// design note.
func (r *Runtime) Submit(fn func() error) error {
	if r.started {
		panic("renderer: Submit called after Start; the worker thread is closed to foreign submissions")
	}
	t := task{fn: fn, done: make(chan error, 1)}
	r.tasks <- t
	return <-t.done
}

// WritableState returns the simulation thread's current writable frame
// slot, to be staged via beginFrame/stage*/endFrame at the engine level.
func (r *Runtime) WritableState() *RenderState {
	return r.states.GetWritable()
}

// EndFrame rotates the triple buffer, publishing the writable slot for the
// renderer to pick up on its next iteration.
func (r *Runtime) EndFrame() {
	r.states.WriteComplete()
}

// Start signals the worker goroutine to leave task-draining mode and fall
// through into the per-frame loop, after first draining whatever tasks
// are still queued (resource uploads, pipeline compilation) and freezing
// the pipeline cache.
func (r *Runtime) Start() {
	r.started = true
	r.running = true
	close(r.startCh)
}

// IsRunning reports whether the render loop is currently active.
func (r *Runtime) IsRunning() bool { return r.running }

// Stop requests the render loop to exit after its current iteration and
// blocks until it has.
func (r *Runtime) Stop() {
	r.running = false
	close(r.stopCh)
	<-r.doneCh
}

// CheckError returns the last error surfaced by the render loop, if any,
// and clears it — the main thread's periodic poll for cross-thread
// failures, matching the original's checkError()/m_error pattern.
func (r *Runtime) CheckError() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	err := r.err
	r.err = nil
	return err
}

func (r *Runtime) setError(err error) {
	r.errMu.Lock()
	r.err = err
	r.errMu.Unlock()
}

// workerLoop is the Runtime's single goroutine for its entire lifetime: it
// services Submit tasks until Start closes startCh, then becomes the
// per-frame render loop until Stop closes stopCh.
func (r *Runtime) workerLoop() {
	defer close(r.doneCh)

draining:
	for {
		select {
		case t := <-r.tasks:
			t.done <- t.fn()
		case <-r.startCh:
			break draining
		}
	}

	r.drainPendingTasks()
	r.cache.Freeze()

	frame := 0
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		state := r.states.GetReadable()
		if err := r.renderFrame(state); err != nil {
			r.setError(fmt.Errorf("renderer: frame %d: %w", frame, err))
			r.running = false
			return
		}

		r.states.ReadComplete()
		frame = (frame + 1) % r.maxFramesInFlight
	}
}

// drainPendingTasks runs every task still queued the instant Start was
// called — resource uploads and pipeline compilation racing the Start
// call itself.
func (r *Runtime) drainPendingTasks() {
	for {
		select {
		case t := <-r.tasks:
			t.done <- t.fn()
		default:
			return
		}
	}
}

func (r *Runtime) renderFrame(state *RenderState) error {
	target, err := r.acquirer.AcquireFrame()
	if err != nil {
		if errors.Is(err, enginerr.ErrSwapchainOutdated) {
			r.logger.Warnf("renderer: swapchain outdated, recreated; skipping this frame")
			return nil
		}
		return fmt.Errorf("acquire frame: %w", err)
	}
	defer target.Release()

	if err := r.recorder.Begin(target); err != nil {
		return fmt.Errorf("begin recording: %w", err)
	}

	var recordErr error
	state.Graph.Each(func(key rendergraph.Key, node *rendergraph.Node) {
		if recordErr != nil {
			return
		}
		mesh, err := r.store.Mesh(resources.ID(node.MeshID))
		if err != nil {
			recordErr = err
			return
		}
		material, err := r.store.Material(resources.ID(node.MaterialID))
		if err != nil {
			recordErr = err
			return
		}
		pipelineKey := pipeline.Key{Mesh: mesh.Features, Material: material.Features}
		compiled, err := r.cache.Get(pipelineKey)
		if err != nil {
			recordErr = err
			return
		}
		recordErr = r.recorder.RecordNode(key, node, compiled)
	})
	if recordErr != nil {
		return recordErr
	}

	if err := r.recorder.Submit(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	r.acquirer.Present()
	return nil
}
