package main

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/kestrelcore/engine/internal/wgpubackend"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/rendergraph"
	"github.com/kestrelcore/engine/resources"
)

// demoRecorder implements renderer.CommandRecorder against a single wgpu
// device, grounded on mod_client.go's rendering(): one render pass per
// frame, cleared to a fixed colour, one SetPipeline/SetVertexBuffer/
// SetIndexBuffer/DrawIndexed per render graph node.
type demoRecorder struct {
	dev   *wgpubackend.Device
	store *resources.Store

	meshes map[resources.ID]*wgpubackend.GPUBuffers

	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

func newDemoRecorder(dev *wgpubackend.Device) *demoRecorder {
	return &demoRecorder{dev: dev, meshes: make(map[resources.ID]*wgpubackend.GPUBuffers)}
}

// setStore binds the resource store once the engine (which owns it) has
// been constructed; recorder and engine are wired together at startup
// before any frame is recorded.
func (r *demoRecorder) setStore(store *resources.Store) { r.store = store }

func (r *demoRecorder) Begin(target interface{ Release() }) error {
	view, ok := target.(*wgpu.TextureView)
	if !ok {
		return fmt.Errorf("enginedemo: unexpected frame target type %T", target)
	}

	encoder, err := r.dev.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("enginedemo: create command encoder: %w", err)
	}
	r.encoder = encoder

	r.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0},
			},
		},
	})
	return nil
}

func (r *demoRecorder) gpuMeshFor(id resources.ID) (*wgpubackend.GPUBuffers, error) {
	if gm, ok := r.meshes[id]; ok {
		return gm, nil
	}
	mesh, err := r.store.Mesh(id)
	if err != nil {
		return nil, err
	}

	vertexCount, err := mesh.VertexCount()
	if err != nil {
		return nil, err
	}

	var vertexData []byte
	for v := 0; v < vertexCount; v++ {
		for _, attr := range mesh.Layout {
			size := pipeline.AttributeSize(attr)
			for _, b := range mesh.Attributes {
				if b.Attribute == attr {
					vertexData = append(vertexData, b.Data[v*size:(v+1)*size]...)
					break
				}
			}
		}
	}

	gm, err := r.dev.UploadMesh(vertexData, mesh.IndexBuffer.Data)
	if err != nil {
		return nil, err
	}
	r.meshes[id] = gm
	return gm, nil
}

func (r *demoRecorder) RecordNode(key rendergraph.Key, node *rendergraph.Node, pipelineHandle pipeline.Compiled) error {
	rp, ok := pipelineHandle.(*wgpu.RenderPipeline)
	if !ok {
		return fmt.Errorf("enginedemo: unexpected pipeline handle type %T", pipelineHandle)
	}
	gm, err := r.gpuMeshFor(resources.ID(node.MeshID))
	if err != nil {
		return err
	}

	r.pass.SetPipeline(rp)
	r.pass.SetIndexBuffer(gm.Index, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	r.pass.SetVertexBuffer(0, gm.Vertex, 0, wgpu.WholeSize)
	r.pass.DrawIndexed(gm.IndexCount, 1, 0, 0, 0)
	return nil
}

func (r *demoRecorder) Submit() error {
	if err := r.pass.End(); err != nil {
		return fmt.Errorf("enginedemo: end render pass: %w", err)
	}
	r.pass.Release()

	cmdBuffer, err := r.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("enginedemo: finish command buffer: %w", err)
	}
	defer cmdBuffer.Release()

	r.dev.Queue.Submit(cmdBuffer)
	r.encoder.Release()
	return nil
}
