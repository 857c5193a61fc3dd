// Package wgpubackend is the only package in this module allowed to import
// cogentcore/webgpu and go-gl/glfw directly. It turns the engine's
// resource/pipeline data model into concrete GPU objects, grounded on the
// teacher's gpu_operations.go (createWindowState/createGpuState/
// createRenderPipeline/createVertexBufferLayout) and mod_client.go's
// rendering() for the per-frame call sequence.
package wgpubackend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kestrelcore/engine/enginerr"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/renderer"
)

// Window owns the glfw window the surface is created from. Spec's external
// interfaces treat windowing as an opaque handle injected from outside the
// core — Window is that handle's concrete realisation for cmd/enginedemo;
// embedders that already own a window can construct a Device directly
// against their own surface instead of going through NewWindow.
type Window struct {
	handle        *glfw.Window
	Width, Height int
}

// NewWindow creates a GLFW window configured for a non-OpenGL (wgpu)
// surface, matching createWindowState exactly.
func NewWindow(width, height int, title string) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("wgpubackend: glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create window: %w", err)
	}
	return &Window{handle: win, Width: width, Height: height}, nil
}

// ShouldClose reports whether the platform asked the window to close.
func (w *Window) ShouldClose() bool { return w.handle.ShouldClose() }

// PollEvents pumps the glfw event queue; call once per simulation tick.
func PollEvents() { glfw.PollEvents() }

// Device bundles the wgpu objects the renderer and resource store need:
// the logical device, its queue, and the swapchain surface.
type Device struct {
	Surface       *wgpu.Surface
	Adapter       *wgpu.Adapter
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	SurfaceConfig *wgpu.SurfaceConfiguration
}

// NewDevice requests a high-performance adapter and device for win's
// surface and configures the swapchain, matching createGpuState.
func NewDevice(win *Window) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win.handle))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "engine device"})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(win.Width),
		Height:      uint32(win.Height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	return &Device{
		Surface:       surface,
		Adapter:       adapter,
		Device:        device,
		Queue:         queue,
		SurfaceConfig: &surfaceConfig,
	}, nil
}

func wgslFormatForAttribute(a pipeline.VertexAttribute) wgpu.VertexFormat {
	switch a {
	case pipeline.AttrPosition, pipeline.AttrNormal, pipeline.AttrTangent:
		return wgpu.VertexFormatFloat32x3
	case pipeline.AttrTexCoord:
		return wgpu.VertexFormatFloat32x2
	case pipeline.AttrJointIndices:
		return wgpu.VertexFormatUint8x4
	case pipeline.AttrJointWeights:
		return wgpu.VertexFormatFloat32x4
	default:
		panic(fmt.Sprintf("wgpubackend: no vertex format for attribute %v", a))
	}
}

// VertexBufferLayout derives a wgpu.VertexBufferLayout from a mesh's
// canonical attribute layout, the data-driven analogue of the teacher's
// struct-tag-driven createVertexBufferLayout (there the tags walk a Go
// struct's fields; here they walk the mesh's own ordered attribute list,
// since our vertex records are not compile-time Go structs).
func VertexBufferLayout(layout pipeline.VertexLayout) wgpu.VertexBufferLayout {
	var attrs []wgpu.VertexAttribute
	var offset uint64

	for i, attr := range layout {
		attrs = append(attrs, wgpu.VertexAttribute{
			ShaderLocation: uint32(i),
			Offset:         offset,
			Format:         wgslFormatForAttribute(attr),
		})
		offset += uint64(pipeline.AttributeSize(attr))
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// Compiler implements pipeline.Compiler against a Device, compiling one
// wgpu.RenderPipeline per (mesh features, material features) key.
type Compiler struct {
	dev        *Device
	shaderCode string
}

// NewCompiler returns a Compiler that builds every pipeline from the same
// WGSL source, shaderCode, used as given. The #define-style macros
// pipeline.Defines derives appear only in the shader module's label; they
// are not substituted into the source (shader preprocessing is out of
// scope for the core, per spec.md §1's exclusions).
func NewCompiler(dev *Device, shaderCode string) *Compiler {
	return &Compiler{dev: dev, shaderCode: shaderCode}
}

func (c *Compiler) Compile(key pipeline.Key, defines []string) (pipeline.Compiled, error) {
	shader, err := c.dev.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          fmt.Sprintf("pipeline-%v", defines),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: c.shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create shader module: %w", err)
	}
	defer shader.Release()

	layout := decodeLayout(key.Mesh.VertexLayout)
	vertexLayout := VertexBufferLayout(layout)

	rp, err := c.dev.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: c.dev.SurfaceConfig.Format, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create render pipeline: %w", err)
	}
	return rp, nil
}

func decodeLayout(encoded string) pipeline.VertexLayout {
	layout := make(pipeline.VertexLayout, len(encoded))
	for i := 0; i < len(encoded); i++ {
		layout[i] = pipeline.VertexAttribute(encoded[i])
	}
	return layout
}

// AcquireFrame gets the current swapchain texture and its view, matching
// the acquire step of mod_client.go's rendering(). It satisfies
// renderer.FrameAcquirer; the returned FrameTarget must be released once
// the frame's command buffer has been submitted (renderer.renderFrame
// releases it after calling Present).
//
// An Outdated surface (typically after a resize) is recovered here by
// reconfiguring the swapchain and reporting enginerr.ErrSwapchainOutdated
// rather than a fatal error, so renderer.renderFrame can skip the frame
// and continue instead of killing the render loop.
func (d *Device) AcquireFrame() (renderer.FrameTarget, error) {
	tex, err := d.Surface.GetCurrentTexture()
	if err != nil {
		if isOutdatedSurfaceError(err) {
			d.Reconfigure()
			return nil, enginerr.ErrSwapchainOutdated
		}
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Reconfigure re-applies the swapchain configuration computed at device
// creation. Called from AcquireFrame to recover from an Outdated surface
// without tearing down the device.
func (d *Device) Reconfigure() {
	d.Surface.Configure(d.Adapter, d.Device, d.SurfaceConfig)
}

func isOutdatedSurfaceError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "outdated")
}

// Present flips the swapchain.
func (d *Device) Present() { d.Surface.Present() }

// GPUBuffers is the uploaded, GPU-resident form of a resources.Mesh: one
// vertex buffer holding every attribute concatenated in layout order, and
// one index buffer, matching createVertexIndexBuffers.
type GPUBuffers struct {
	Vertex     *wgpu.Buffer
	Index      *wgpu.Buffer
	IndexCount uint32
}

// UploadMesh creates GPU buffers for vertexData (already interleaved by
// the caller according to the mesh's layout) and indexData (u16 little
// endian), grounded on createVertexIndexBuffers.
func (d *Device) UploadMesh(vertexData, indexData []byte) (*GPUBuffers, error) {
	vertexBuf, err := d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "engine vertex buffer",
		Contents: vertexData,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create vertex buffer: %w", err)
	}
	indexBuf, err := d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "engine index buffer",
		Contents: indexData,
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create index buffer: %w", err)
	}
	return &GPUBuffers{Vertex: vertexBuf, Index: indexBuf, IndexCount: uint32(len(indexData) / 2)}, nil
}
