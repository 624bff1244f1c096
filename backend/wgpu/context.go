package wgpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cubefield/backend"
)

// context implements backend.Context for the wgpu device.
//
// A deferred context accumulates draws CPU-side and encodes the whole band
// into one HAL command buffer at Finish. The immediate context encodes and
// submits a single-draw pass per RecordDraw.
type context struct {
	dev       *Device
	immediate bool

	// staging holds one uniformStride-aligned matrix block per draw.
	staging []byte
	draws   int

	// strategy is the upload strategy of the current recording. All draws
	// within one band use the same strategy; the coordinator guarantees it.
	strategy backend.UploadStrategy

	// Immediate-context resources, created on first draw.
	immUniform hal.Buffer
	immBind    hal.BindGroup
}

// RecordDraw records one instance draw with the given world transform.
func (c *context) RecordDraw(transform mgl32.Mat4, strategy backend.UploadStrategy) error {
	if c.immediate {
		return c.drawImmediate(transform)
	}

	off := c.draws * uniformStride
	if need := off + uniformStride; need > len(c.staging) {
		grown := make([]byte, need*2)
		copy(grown, c.staging)
		c.staging = grown
	}
	packMatrix(c.staging[off:off+matrixSize], transform)
	c.draws++
	c.strategy = strategy
	return nil
}

// Finish encodes the recorded draws into a command buffer.
func (c *context) Finish() (backend.CommandBuffer, error) {
	if c.immediate || c.draws == 0 {
		return nil, backend.ErrEmptyRecording
	}

	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized || d.vertexBuf == nil {
		return nil, backend.ErrNotInitialized
	}

	draws := c.draws
	size := uint64(draws * uniformStride)

	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "band_uniforms",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}

	// UploadMapDiscard replaces the whole block in one write, matching
	// map-with-discard semantics. UploadSubresource issues one write per
	// draw region, the direct-update path.
	switch c.strategy {
	case backend.UploadMapDiscard:
		d.queue.WriteBuffer(uniformBuf, 0, c.staging[:size])
	default:
		for i := 0; i < draws; i++ {
			off := i * uniformStride
			d.queue.WriteBuffer(uniformBuf, uint64(off), c.staging[off:off+matrixSize])
		}
	}

	bindGroups := make([]hal.BindGroup, 0, draws)
	for i := 0; i < draws; i++ {
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "band_bind",
			Layout: d.uniformLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: uniformBuf.NativeHandle(),
					Offset: uint64(i * uniformStride),
					Size:   matrixSize,
				}},
			},
		})
		if err != nil {
			destroyBandResources(d, uniformBuf, bindGroups)
			return nil, fmt.Errorf("wgpu: create bind group: %w", err)
		}
		bindGroups = append(bindGroups, bg)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "band_encoder",
	})
	if err != nil {
		destroyBandResources(d, uniformBuf, bindGroups)
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("band_record"); err != nil {
		destroyBandResources(d, uniformBuf, bindGroups)
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "band_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    d.colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(d.pipeline)
	rp.SetVertexBuffer(0, d.vertexBuf, 0)
	for _, bg := range bindGroups {
		rp.SetBindGroup(0, bg, nil)
		rp.Draw(d.vertexCount, 1, 0, 0)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		destroyBandResources(d, uniformBuf, bindGroups)
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}

	c.draws = 0
	return &commandBuffer{
		cmd:        cmd,
		uniformBuf: uniformBuf,
		bindGroups: bindGroups,
		draws:      draws,
	}, nil
}

// drawImmediate encodes and submits a single-draw pass. This is the slow
// baseline path: one uniform write, one render pass and one submit per cube.
func (c *context) drawImmediate(transform mgl32.Mat4) error {
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized || d.vertexBuf == nil {
		return backend.ErrNotInitialized
	}

	if c.immUniform == nil {
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "immediate_uniform",
			Size:  uniformStride,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create immediate uniform: %w", err)
		}
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "immediate_bind",
			Layout: d.uniformLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(),
					Offset: 0,
					Size:   matrixSize,
				}},
			},
		})
		if err != nil {
			d.device.DestroyBuffer(buf)
			return fmt.Errorf("wgpu: create immediate bind group: %w", err)
		}
		c.immUniform = buf
		c.immBind = bg
	}

	var block [matrixSize]byte
	packMatrix(block[:], transform)
	d.queue.WriteBuffer(c.immUniform, 0, block[:])

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "immediate_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create immediate encoder: %w", err)
	}
	if err := encoder.BeginEncoding("immediate_draw"); err != nil {
		return fmt.Errorf("wgpu: begin immediate encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "immediate_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    d.colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(d.pipeline)
	rp.SetVertexBuffer(0, d.vertexBuf, 0)
	rp.SetBindGroup(0, c.immBind, nil)
	rp.Draw(d.vertexCount, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end immediate encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, nil, 0); err != nil {
		return fmt.Errorf("wgpu: submit immediate draw: %w", err)
	}
	return nil
}

// Destroy releases the context. Immediate-context resources are owned by
// the device lifetime and released here only when present.
func (c *context) Destroy() {
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		if c.immBind != nil {
			d.device.DestroyBindGroup(c.immBind)
			c.immBind = nil
		}
		if c.immUniform != nil {
			d.device.DestroyBuffer(c.immUniform)
			c.immUniform = nil
		}
	}
	c.staging = nil
	c.draws = 0
}

// destroyBandResources frees partially built per-frame resources after a
// Finish failure. Callers must hold d.mu.
func destroyBandResources(d *Device, uniformBuf hal.Buffer, bindGroups []hal.BindGroup) {
	for _, bg := range bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	if uniformBuf != nil {
		d.device.DestroyBuffer(uniformBuf)
	}
}

// commandBuffer is a finished band recording: the HAL command buffer plus
// the per-frame uniform buffer and bind groups it references. The resources
// stay alive until Release so a retained buffer can be replayed each frame.
type commandBuffer struct {
	cmd        hal.CommandBuffer
	uniformBuf hal.Buffer
	bindGroups []hal.BindGroup
	draws      int
	released   bool
}

// DrawCount returns the number of draws recorded into the buffer.
func (b *commandBuffer) DrawCount() int { return b.draws }
