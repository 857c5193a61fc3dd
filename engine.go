// Package engine is the module root: it wires the spatial index, the
// collision system, the resource store, the pipeline cache and the render
// runtime into a single façade a host application drives frame by frame,
// the way the teacher's App type wires its own subsystems together in
// app.go.
package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine/collision"
	"github.com/kestrelcore/engine/config"
	"github.com/kestrelcore/engine/entity"
	"github.com/kestrelcore/engine/enginelog"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/renderer"
	"github.com/kestrelcore/engine/resources"
	"github.com/kestrelcore/engine/spatial"
)

// Engine is the entry point an embedder constructs once per running
// instance. It owns the entity id allocator, the spatial and collision
// systems, the resource store, the pipeline cache, and the render runtime.
type Engine struct {
	cfg    config.Config
	logger enginelog.Logger

	ids       *entity.IdAllocator
	spatial   *spatial.System
	collision *collision.System
	resources *resources.Store
	pipelines *pipeline.Cache
	render    *renderer.Runtime
}

// NewEngine wires every subsystem from cfg. The render runtime is built
// from compiler/recorder/acquirer so the GPU backend stays confined to
// internal/wgpubackend and callers that only need the simulation side
// (spatial queries, collision resolution) can pass nil for all three and
// simply never call Start.
func NewEngine(cfg config.Config, logger enginelog.Logger, compiler pipeline.Compiler, recorder renderer.CommandRecorder, acquirer renderer.FrameAcquirer) *Engine {
	if logger == nil {
		logger = enginelog.NewNop()
	}

	spatialSys := spatial.New(cfg.World.Min(), cfg.World.Max(), cfg.SpatialGridSize)
	collisionSys := collision.New(spatialSys)
	collisionSys.Initialise(cfg.World.Min(), cfg.World.Max())

	store := resources.New()
	cache := pipeline.New(compiler)

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		ids:       entity.NewIdAllocator(),
		spatial:   spatialSys,
		collision: collisionSys,
		resources: store,
		pipelines: cache,
	}
	e.render = renderer.New(logger, cache, store, recorder, acquirer, cfg.MaxFramesInFlight)
	return e
}

// Ids exposes the shared entity id allocator.
func (e *Engine) Ids() *entity.IdAllocator { return e.ids }

// Spatial exposes the Spatial API (spec.md §6): culling queries and
// transform lookups.
func (e *Engine) Spatial() *spatial.System { return e.spatial }

// Collision exposes the Collision API (spec.md §6): TryMove and Altitude.
func (e *Engine) Collision() *collision.System { return e.collision }

// Resources exposes the resource ingestion API (spec.md §6): textures,
// cube maps, meshes, materials.
func (e *Engine) Resources() *resources.Store { return e.resources }

// Pipelines exposes the pipeline cache so an embedder can Compile every
// feature combination it needs before the first Start call.
func (e *Engine) Pipelines() *pipeline.Cache { return e.pipelines }

// Submit runs fn on the render worker thread before Start, for resource
// uploads and pipeline compilation that must happen off the calling
// goroutine.
func (e *Engine) Submit(fn func() error) error { return e.render.Submit(fn) }

// Start launches the render loop. Call only after every resource and
// pipeline has been submitted.
func (e *Engine) Start() { e.render.Start() }

// Stop halts the render loop and waits for it to exit.
func (e *Engine) Stop() { e.render.Stop() }

// CheckError returns and clears the last error surfaced by the render
// thread, if any — poll this once per simulation tick.
func (e *Engine) CheckError() error { return e.render.CheckError() }

// Frame accumulates the per-frame simulation API calls (spec.md §6:
// stageModel/stageInstance/stageSkybox/stageLight) against the render
// runtime's writable triple-buffer slot, then publishes it on End. The
// caller only ever names a mesh and a material; transparency and the
// pipeline hash that key a render graph node are derived here from the
// resource store and the pipeline feature combination they imply.
type Frame struct {
	state     *renderer.RenderState
	render    *renderer.Runtime
	resources *resources.Store
	maxLights int
}

// BeginFrame returns a Frame bound to the render runtime's current
// writable slot. Exactly one Frame should be live per simulation tick.
func (e *Engine) BeginFrame(cameraPos mgl32.Vec3, view, proj mgl32.Mat4) *Frame {
	state := e.render.WritableState()
	state.Graph.Reset()
	state.Lights = state.Lights[:0]
	state.CameraPos = cameraPos
	state.CameraView = view
	state.CameraProj = proj
	return &Frame{state: state, render: e.render, resources: e.resources, maxLights: e.cfg.MaxLights}
}

// pipelineKey resolves meshID/materialID to the pipeline.Key they compile
// under, along with the transparency flag the material's feature bits
// carry.
func (f *Frame) pipelineKey(meshID, materialID resources.ID) (key pipeline.Key, transparent bool, err error) {
	mesh, err := f.resources.Mesh(meshID)
	if err != nil {
		return pipeline.Key{}, false, fmt.Errorf("engine: resolving mesh: %w", err)
	}
	material, err := f.resources.Material(materialID)
	if err != nil {
		return pipeline.Key{}, false, fmt.Errorf("engine: resolving material: %w", err)
	}
	key = pipeline.Key{Mesh: mesh.Features, Material: material.Features}
	transparent = material.Features.Flags&pipeline.MaterialHasTransparency != 0
	return key, transparent, nil
}

// StageModel adds a non-merging draw node for a single model instance.
func (f *Frame) StageModel(meshID, materialID resources.ID, worldTransform mgl32.Mat4) error {
	key, transparent, err := f.pipelineKey(meshID, materialID)
	if err != nil {
		return err
	}
	f.state.Graph.AddDefaultModel(transparent, pipeline.HashKey(key), int64(meshID), int64(materialID), worldTransform)
	return nil
}

// StageInstance appends worldTransform to the instanced draw node for
// (meshID, materialID), merging with any earlier StageInstance call this
// frame for the same key.
func (f *Frame) StageInstance(meshID, materialID resources.ID, worldTransform mgl32.Mat4) error {
	key, transparent, err := f.pipelineKey(meshID, materialID)
	if err != nil {
		return err
	}
	f.state.Graph.AddInstance(transparent, pipeline.HashKey(key), int64(meshID), int64(materialID), worldTransform)
	return nil
}

// StageSkybox sets the frame's singleton skybox node.
func (f *Frame) StageSkybox(meshID, materialID resources.ID) error {
	key, transparent, err := f.pipelineKey(meshID, materialID)
	if err != nil {
		return err
	}
	f.state.Graph.SetSkybox(transparent, pipeline.HashKey(key), int64(meshID), int64(materialID))
	return nil
}

// StageLight appends a light to the frame, failing with
// ErrLightCapacityExceeded once the configured MaxLights is reached.
func (f *Frame) StageLight(l renderer.Light) error {
	if len(f.state.Lights) >= f.maxLights {
		return fmt.Errorf("engine: staging light: %w", enginerr.ErrLightCapacityExceeded)
	}
	f.state.Lights = append(f.state.Lights, l)
	return nil
}

// End publishes the frame to the render thread.
func (f *Frame) End() {
	f.render.EndFrame()
}
