package backend

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Common backend errors.
var (
	// ErrDeviceNotAvailable is returned when a requested device is not available.
	ErrDeviceNotAvailable = errors.New("backend: device not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrEmptyRecording is returned by Finish when the context has not
	// recorded a single draw. An empty command buffer indicates a
	// partitioning bug upstream, not a transient condition.
	ErrEmptyRecording = errors.New("backend: finish on context with no recorded draws")

	// ErrBufferReleased is returned when executing a command buffer that
	// has already been released.
	ErrBufferReleased = errors.New("backend: command buffer already released")
)

// UploadStrategy selects how per-draw constants reach the GPU.
// Both strategies are semantically equivalent; they differ only in cost
// profile, which is the point of making them switchable at runtime.
type UploadStrategy int

const (
	// UploadSubresource writes constants with a direct subresource update.
	UploadSubresource UploadStrategy = iota

	// UploadMapDiscard maps the constant buffer with discard semantics and
	// writes through the mapping.
	UploadMapDiscard
)

// String returns the strategy name.
func (s UploadStrategy) String() string {
	switch s {
	case UploadSubresource:
		return "Subresource"
	case UploadMapDiscard:
		return "MapDiscard"
	default:
		return "Unknown"
	}
}

// CommandBuffer is a recorded, replayable sequence of draw operations.
// Buffers are produced by Context.Finish on a deferred context and consumed
// by Device.Execute on the immediate context, possibly repeatedly. The
// concrete type is owned by the device that produced it.
type CommandBuffer interface {
	// DrawCount returns the number of draws recorded into the buffer.
	DrawCount() int
}

// Context records draw commands. A deferred context only records; the
// immediate context's draws take effect directly on the render target.
//
// A Context is confined to one goroutine at a time: during parallel
// recording each worker owns exactly one context.
type Context interface {
	// RecordDraw records one instance draw with the given world transform,
	// uploading the transform via the selected strategy. The shared static
	// cube geometry is bound by the device; RecordDraw only varies the
	// per-instance constants.
	RecordDraw(transform mgl32.Mat4, strategy UploadStrategy) error

	// Finish ends recording and returns the finished command buffer.
	// It fails with ErrEmptyRecording if no draw was recorded. Calling
	// Finish on the immediate context is a programming error and also fails.
	// After Finish the context is ready to record the next frame.
	Finish() (CommandBuffer, error)

	// Destroy releases the context. Only deferred contexts are destroyed;
	// the immediate context lives as long as its device.
	Destroy()
}

// Device is the GPU-device collaborator: it owns the immediate context,
// creates per-worker deferred contexts, holds the shared cube geometry and
// executes finished command buffers.
//
// Execute and Release are single-writer operations: the frame coordinator
// alone calls them, strictly sequentially.
type Device interface {
	// Name returns the device identifier (e.g. "headless", "wgpu").
	Name() string

	// Init initializes the device. It must be called before any other
	// operation.
	Init() error

	// Close releases all device resources, including any contexts that
	// have not been destroyed.
	Close()

	// Immediate returns the immediate context. Draws recorded on it are
	// executed directly; it never produces command buffers.
	Immediate() Context

	// NewContext creates a deferred recording context.
	NewContext() (Context, error)

	// UploadMesh uploads the shared static geometry drawn by every
	// RecordDraw call. The mesh is read-only for the device lifetime.
	UploadMesh(m Mesh) error

	// Execute replays a finished command buffer on the immediate context.
	// When restoreState is set, the immediate context's state is restored
	// after playback, so replaying the same buffer next frame starts from
	// clean state.
	Execute(cb CommandBuffer, restoreState bool) error

	// Release frees a command buffer. The buffer must not be executed
	// afterwards. Releasing the same buffer twice is a programming error;
	// devices detect and report it.
	Release(cb CommandBuffer)
}
