// Package wgpu provides a GPU device backed by gogpu/wgpu's hardware
// abstraction layer.
//
// The device opens the first usable Vulkan adapter, compiles the cube shader
// through naga, and renders into an offscreen color target. Deferred contexts
// record into real HAL command buffers; Execute submits them to the device
// queue in the order the coordinator delivers them.
package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cubefield"
	"github.com/gogpu/cubefield/backend"

	// Import the Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// init registers the wgpu device on package import.
func init() {
	backend.Register(backend.DeviceWGPU, func() backend.Device {
		return New()
	})
}

const (
	// targetWidth and targetHeight size the offscreen color target.
	targetWidth  = 1024
	targetHeight = 1024

	// uniformStride is the offset between per-draw uniform blocks. WebGPU
	// requires uniform offsets aligned to 256 bytes.
	uniformStride = 256

	// matrixSize is the byte size of one mat4x4<f32> uniform block.
	matrixSize = 64

	// vertexStride is the byte size of one backend.Vertex (two vec4<f32>).
	vertexStride = 32
)

// Device is the wgpu backend.Device implementation.
type Device struct {
	mu          sync.Mutex
	initialized bool

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	colorTex  hal.Texture
	colorView hal.TextureView

	vertexBuf   hal.Buffer
	vertexCount uint32

	immediate *context
	contexts  []*context
}

// New creates an uninitialized wgpu device.
func New() *Device {
	d := &Device{}
	d.immediate = &context{dev: d, immediate: true}
	return d
}

// Name returns the device identifier.
func (d *Device) Name() string { return backend.DeviceWGPU }

// AdapterName returns the name of the selected GPU adapter.
// It is empty until Init succeeds.
func (d *Device) AdapterName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapterName
}

// Init opens the GPU and builds the render pipeline.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available: %w", backend.ErrDeviceNotAvailable)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		d.destroyLocked()
		return fmt.Errorf("wgpu: no GPU adapters found: %w", backend.ErrDeviceNotAvailable)
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		d.destroyLocked()
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapterName = selected.Info.Name

	if err := d.createTarget(); err != nil {
		d.destroyLocked()
		return err
	}
	if err := d.createPipeline(); err != nil {
		d.destroyLocked()
		return err
	}

	d.initialized = true
	cubefield.Logger().Info("wgpu: device initialized", "adapter", d.adapterName)
	return nil
}

// createTarget creates the offscreen color target.
func (d *Device) createTarget() error {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: "cube_color",
		Size: hal.Extent3D{
			Width:              targetWidth,
			Height:             targetHeight,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create color texture: %w", err)
	}
	d.colorTex = tex

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "cube_color_view",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create color view: %w", err)
	}
	d.colorView = view
	return nil
}

// createPipeline compiles the cube shader and creates the render pipeline.
func (d *Device) createPipeline() error {
	shader, err := compileCubeShader(d.device)
	if err != nil {
		return err
	}
	d.shader = shader

	uniformLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "cube_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform layout: %w", err)
	}
	d.uniformLayout = uniformLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "cube_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "cube_pipeline",
		Layout: d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     d.shader,
			EntryPoint: "vs_main",
			Buffers:    cubeVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     d.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create cube pipeline: %w", err)
	}
	d.pipeline = pipeline
	return nil
}

// cubeVertexLayout returns the vertex buffer layout for the cube pipeline.
func cubeVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1}, // color
			},
		},
	}
}

// Close releases all GPU resources.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyLocked()
}

// destroyLocked tears down GPU resources in reverse creation order.
// Callers must hold d.mu.
func (d *Device) destroyLocked() {
	d.contexts = nil

	if d.device != nil {
		if d.vertexBuf != nil {
			d.device.DestroyBuffer(d.vertexBuf)
			d.vertexBuf = nil
		}
		if d.pipeline != nil {
			d.device.DestroyRenderPipeline(d.pipeline)
			d.pipeline = nil
		}
		if d.pipeLayout != nil {
			d.device.DestroyPipelineLayout(d.pipeLayout)
			d.pipeLayout = nil
		}
		if d.uniformLayout != nil {
			d.device.DestroyBindGroupLayout(d.uniformLayout)
			d.uniformLayout = nil
		}
		if d.shader != nil {
			d.device.DestroyShaderModule(d.shader)
			d.shader = nil
		}
		if d.colorView != nil {
			d.device.DestroyTextureView(d.colorView)
			d.colorView = nil
		}
		if d.colorTex != nil {
			d.device.DestroyTexture(d.colorTex)
			d.colorTex = nil
		}
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
	d.initialized = false
}

// Immediate returns the immediate context.
func (d *Device) Immediate() backend.Context { return d.immediate }

// NewContext creates a deferred recording context.
func (d *Device) NewContext() (backend.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, backend.ErrNotInitialized
	}
	ctx := &context{dev: d}
	d.contexts = append(d.contexts, ctx)
	return ctx, nil
}

// UploadMesh packs the shared geometry and uploads it into a vertex buffer.
func (d *Device) UploadMesh(m backend.Mesh) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return backend.ErrNotInitialized
	}

	data := packVertices(m)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_verts",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create vertex buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, data)

	if d.vertexBuf != nil {
		d.device.DestroyBuffer(d.vertexBuf)
	}
	d.vertexBuf = buf
	d.vertexCount = uint32(m.VertexCount())
	return nil
}

// Execute submits a finished command buffer to the device queue.
// restoreState is accepted for the device contract; at the HAL level every
// submission starts from freshly bound state, so replaying a retained buffer
// needs no extra work.
func (d *Device) Execute(cb backend.CommandBuffer, restoreState bool) error {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil {
		return backend.ErrBufferReleased
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return backend.ErrNotInitialized
	}
	if buf.released {
		return backend.ErrBufferReleased
	}

	if err := d.queue.Submit([]hal.CommandBuffer{buf.cmd}, nil, 0); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	_ = restoreState
	return nil
}

// Release frees a command buffer and its per-frame GPU resources.
func (d *Device) Release(cb backend.CommandBuffer) {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if buf.released {
		cubefield.Logger().Warn("wgpu: double release of command buffer",
			"draws", buf.draws)
		return
	}
	buf.released = true

	if d.device == nil {
		return
	}
	d.device.FreeCommandBuffer(buf.cmd)
	for _, bg := range buf.bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	if buf.uniformBuf != nil {
		d.device.DestroyBuffer(buf.uniformBuf)
	}
}

// packVertices serializes mesh vertices into the little-endian layout the
// vertex shader expects.
func packVertices(m backend.Mesh) []byte {
	data := make([]byte, 0, len(m.Vertices)*vertexStride)
	var scratch [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f))
		data = append(data, scratch[:]...)
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		for _, f := range v.Pos {
			put(f)
		}
		for _, f := range v.Color {
			put(f)
		}
	}
	return data
}

// packMatrix serializes a column-major mat4 into dst.
func packMatrix(dst []byte, mat mgl32.Mat4) {
	for i, f := range mat {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
