// Package headless provides a CPU-only device that validates the recording
// discipline without touching a GPU.
//
// The device counts draws, finishes, executions and releases, and enforces
// the same lifecycle rules a real device would: finishing an empty context
// fails, executing a released buffer fails, and double releases are
// detected. It is the default device for tests, CI and benchmarks.
package headless

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/cubefield"
	"github.com/gogpu/cubefield/backend"
)

// init registers the headless device on package import.
func init() {
	backend.Register(backend.DeviceHeadless, func() backend.Device {
		return New()
	})
}

// Stats is a snapshot of the device's lifetime counters.
type Stats struct {
	// Draws is the total number of RecordDraw calls across all contexts.
	Draws int

	// Finishes is the number of command buffers produced.
	Finishes int

	// Executes is the number of command buffer executions.
	Executes int

	// ExecutedDraws is the total number of draws replayed by Execute.
	ExecutedDraws int

	// Releases is the number of command buffer releases.
	Releases int

	// Faults counts lifecycle violations observed (double release,
	// execute-after-release).
	Faults int
}

// Device is the headless backend.Device implementation.
// It is safe for concurrent recording from multiple contexts; the shared
// counters are mutex-protected.
type Device struct {
	mu          sync.Mutex
	initialized bool
	mesh        backend.Mesh
	immediate   *context
	contexts    []*context
	stats       Stats
}

// New creates an uninitialized headless device.
func New() *Device {
	d := &Device{}
	d.immediate = &context{dev: d, immediate: true}
	return d
}

// Name returns the device identifier.
func (d *Device) Name() string { return backend.DeviceHeadless }

// Init initializes the device.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

// Close releases the device and destroys all outstanding contexts.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contexts = nil
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

// UploadMesh stores the shared geometry.
func (d *Device) UploadMesh(m backend.Mesh) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return backend.ErrNotInitialized
	}
	d.mesh = m
	return nil
}

// Execute replays a finished command buffer on the immediate context.
func (d *Device) Execute(cb backend.CommandBuffer, restoreState bool) error {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil {
		return backend.ErrBufferReleased
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if buf.released {
		d.stats.Faults++
		return backend.ErrBufferReleased
	}
	d.stats.Executes++
	d.stats.ExecutedDraws += buf.draws
	_ = restoreState // no device state to restore
	return nil
}

// Release frees a command buffer. A second release of the same buffer is
// counted as a fault and logged, matching the "no double free" contract.
func (d *Device) Release(cb backend.CommandBuffer) {
	buf, ok := cb.(*commandBuffer)
	if !ok || buf == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if buf.released {
		d.stats.Faults++
		cubefield.Logger().Warn("headless: double release of command buffer",
			"draws", buf.draws)
		return
	}
	buf.released = true
	d.stats.Releases++
}

// Stats returns a snapshot of the lifetime counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// context implements backend.Context for the headless device.
type context struct {
	dev       *Device
	immediate bool
	draws     int
}

// RecordDraw counts one instance draw. The transform and upload strategy
// are accepted but not interpreted; there is nothing to rasterize.
func (c *context) RecordDraw(transform mgl32.Mat4, strategy backend.UploadStrategy) error {
	c.dev.mu.Lock()
	if !c.dev.initialized {
		c.dev.mu.Unlock()
		return backend.ErrNotInitialized
	}
	c.dev.stats.Draws++
	c.dev.mu.Unlock()

	c.draws++
	_ = transform
	_ = strategy
	return nil
}

// Finish produces a command buffer holding the draws recorded since the
// previous Finish. It fails on the immediate context and on a context that
// recorded nothing.
func (c *context) Finish() (backend.CommandBuffer, error) {
	if c.immediate {
		return nil, backend.ErrEmptyRecording
	}
	if c.draws == 0 {
		return nil, backend.ErrEmptyRecording
	}

	buf := &commandBuffer{draws: c.draws}
	c.draws = 0

	c.dev.mu.Lock()
	c.dev.stats.Finishes++
	c.dev.mu.Unlock()
	return buf, nil
}

// Destroy releases the context.
func (c *context) Destroy() {
	c.draws = 0
}

// commandBuffer is the headless command buffer: just a draw count and a
// release flag.
type commandBuffer struct {
	draws    int
	released bool
}

// DrawCount returns the number of draws recorded into the buffer.
func (b *commandBuffer) DrawCount() int { return b.draws }
