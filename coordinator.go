package cubefield

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/cubefield/backend"
	"github.com/gogpu/cubefield/internal/parallel"
)

// Coordinator errors.
var (
	// ErrClosed is returned when rendering on a closed coordinator.
	ErrClosed = errors.New("cubefield: coordinator closed")

	// ErrRecording wraps worker recording failures. Recording failures are
	// precondition violations (an empty band reached a worker), so a frame
	// that hits one is lost, not retried.
	ErrRecording = errors.New("cubefield: recording failed")

	// ErrSubmission wraps command buffer execution failures.
	ErrSubmission = errors.New("cubefield: submission failed")
)

// Option configures a Coordinator during creation.
type Option func(*coordinatorOptions)

// coordinatorOptions holds optional configuration for New.
type coordinatorOptions struct {
	config    Config
	statsSink func(FrameStats)
}

// WithConfig sets the starting configuration. Out-of-range values are
// clamped.
func WithConfig(cfg Config) Option {
	return func(o *coordinatorOptions) {
		o.config = cfg.Clamped()
	}
}

// WithStatsSink installs a callback that receives a FrameStats value after
// every completed frame. The callback runs on the rendering goroutine and
// should hand the value off quickly.
func WithStatsSink(fn func(FrameStats)) Option {
	return func(o *coordinatorOptions) {
		o.statsSink = fn
	}
}

// Coordinator schedules one frame at a time: it partitions the grid into
// row bands, dispatches recording onto workers, joins them, submits the
// finished command buffers to the immediate context in worker-index order,
// and commits any pending configuration change at the frame boundary.
//
// Update and RenderFrame are meant to be called from one goroutine, once
// each per displayed frame, Update first. The current/pending configuration
// pair is additionally mutex-guarded so a misplaced concurrent Update can
// never corrupt a frame in progress.
type Coordinator struct {
	dev  backend.Device
	pool *parallel.WorkerPool

	// slots is the fixed worker slot table; see workerSlot for the
	// ownership rules.
	slots [MaxWorkers]workerSlot

	// mu guards the current/pending pair. The commit is a single
	// assignment under mu, performed only after submission.
	mu      sync.Mutex
	current Config
	pending *Config

	frame     uint64
	statsSink func(FrameStats)
	closed    bool
}

// New creates a Coordinator on the given device. The device is initialized,
// the shared cube mesh is uploaded, and one deferred recording context is
// created per worker slot up front; the slot table is never resized.
func New(dev backend.Device, opts ...Option) (*Coordinator, error) {
	o := coordinatorOptions{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("cubefield: device init: %w", err)
	}
	if err := dev.UploadMesh(backend.CubeMesh()); err != nil {
		dev.Close()
		return nil, fmt.Errorf("cubefield: mesh upload: %w", err)
	}

	c := &Coordinator{
		dev:       dev,
		pool:      parallel.NewWorkerPool(MaxWorkers),
		current:   o.config,
		statsSink: o.statsSink,
	}

	for i := range c.slots {
		ctx, err := dev.NewContext()
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("cubefield: context for worker %d: %w", i, err)
		}
		c.slots[i].ctx = ctx
	}

	Logger().Info("coordinator ready",
		"device", dev.Name(),
		"slots", MaxWorkers,
		"mode", c.current.Mode.String(),
		"grid", c.current.GridSize)
	return c, nil
}

// Config returns the configuration driving the current frame.
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Frame returns the number of frames rendered so far.
func (c *Coordinator) Frame() uint64 {
	return c.frame
}

// Update applies the frame's input actions and stages the result as the
// pending configuration. It reports whether a change was staged. The
// pending value takes effect only after the in-flight frame has been
// submitted; it never alters the frame being drawn.
func (c *Coordinator) Update(in Input) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.current
	if c.pending != nil {
		base = *c.pending
	}
	next, changed := ApplyInput(base, in)
	if !changed {
		return false
	}
	c.pending = &next

	Logger().Debug("staged config change",
		"grid", next.GridSize,
		"workers", next.WorkerCount,
		"mode", next.Mode.String())
	return true
}

// RenderFrame renders one frame at the given time. It runs the full pass:
// Partitioning, Recording (mode-specific dispatch), Joined, Submitted,
// Committed. A frame always runs to completion; any failure is fatal to the
// frame and returned, with no partial recovery.
func (c *Coordinator) RenderFrame(seconds float64) error {
	if c.closed {
		return ErrClosed
	}

	frameStart := time.Now()
	c.mu.Lock()
	cfg := c.current
	c.mu.Unlock()

	// Partitioning.
	active := cfg.ActiveWorkers()
	bands := PartitionRows(cfg.GridSize, active)
	ft := newFrameTransforms(cfg.GridSize, seconds)

	// Recording, then the join barrier.
	recordStart := time.Now()
	perWorker, recorded, err := c.record(cfg, bands, ft)
	if err != nil {
		c.releaseRecorded()
		return err
	}
	recordTime := time.Since(recordStart)

	// Submitted: ascending worker index, single writer.
	submitStart := time.Now()
	if err := c.submit(cfg, active); err != nil {
		c.releaseRecorded()
		return err
	}
	submitTime := time.Since(submitStart)

	// Committed: the only point where configuration may change.
	c.commit(cfg)

	c.frame++
	if c.statsSink != nil {
		c.statsSink(FrameStats{
			Frame:      c.frame,
			Mode:       cfg.Mode,
			GridSize:   cfg.GridSize,
			Workers:    active,
			Instances:  cfg.InstanceCount(),
			Recorded:   recorded,
			RecordTime: recordTime,
			SubmitTime: submitTime,
			FrameTime:  time.Since(frameStart),
			PerWorker:  perWorker,
		})
	}
	return nil
}

// record runs the mode-specific recording strategy and returns per-worker
// stats plus whether any recording actually happened (frozen replay frames
// record nothing).
func (c *Coordinator) record(cfg Config, bands []RowBand, ft frameTransforms) ([]WorkerStat, bool, error) {
	switch cfg.Mode {
	case ModeImmediate:
		// Worker 0 draws straight to the immediate context; no buffer.
		t0 := time.Now()
		if err := renderRows(c.dev.Immediate(), bands[0], cfg, ft); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrRecording, err)
		}
		stat := WorkerStat{Worker: 0, Rows: bands[0].Rows(), RecordTime: time.Since(t0)}
		return []WorkerStat{stat}, true, nil

	case ModeFrozen:
		// Record once, on first activation; afterwards the retained buffer
		// is replayed without touching the context.
		if c.slots[0].state == slotRetained {
			return []WorkerStat{{Worker: 0, Rows: bands[0].Rows()}}, false, nil
		}
		t0 := time.Now()
		if err := c.recordBand(bands[0], cfg, ft); err != nil {
			return nil, false, err
		}
		stat := WorkerStat{Worker: 0, Rows: bands[0].Rows(), RecordTime: time.Since(t0)}
		return []WorkerStat{stat}, true, nil

	default: // ModeDeferred
		if len(bands) == 1 {
			// Single worker: record inline, skipping dispatch overhead.
			t0 := time.Now()
			if err := c.recordBand(bands[0], cfg, ft); err != nil {
				return nil, false, err
			}
			stat := WorkerStat{Worker: 0, Rows: bands[0].Rows(), RecordTime: time.Since(t0)}
			return []WorkerStat{stat}, true, nil
		}
		return c.recordParallel(cfg, bands, ft)
	}
}

// recordParallel dispatches one recording task per band and blocks on the
// pool's join barrier. This is the only synchronization point in the frame:
// submission order and buffer validity both depend on every worker having
// finished.
func (c *Coordinator) recordParallel(cfg Config, bands []RowBand, ft frameTransforms) ([]WorkerStat, bool, error) {
	errs := make([]error, len(bands))
	stats := make([]WorkerStat, len(bands))

	tasks := make([]func(), len(bands))
	for i, band := range bands {
		tasks[i] = func() {
			t0 := time.Now()
			errs[band.Worker] = c.recordBand(band, cfg, ft)
			stats[band.Worker] = WorkerStat{
				Worker:     band.Worker,
				Rows:       band.Rows(),
				RecordTime: time.Since(t0),
			}
		}
	}

	c.pool.ExecuteAll(tasks) // Joined

	if err := errors.Join(errs...); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrRecording, err)
	}
	return stats, true, nil
}

// recordBand records one band into its slot's context and stores the
// finished buffer in the slot. Each invocation touches only its own slot;
// bands carry distinct worker indices within a frame.
func (c *Coordinator) recordBand(band RowBand, cfg Config, ft frameTransforms) error {
	slot := &c.slots[band.Worker]
	if err := renderRows(slot.ctx, band, cfg, ft); err != nil {
		return fmt.Errorf("worker %d: %w", band.Worker, err)
	}
	buf, err := slot.ctx.Finish()
	if err != nil {
		return fmt.Errorf("worker %d finish: %w", band.Worker, err)
	}
	slot.store(buf)
	return nil
}

// submit executes the finished buffers on the immediate context in
// ascending worker-index order. Submission order determines draw order on
// the shared target, so it must not depend on which worker finished first.
// Deferred buffers are released right after execution; the frozen buffer is
// retained for replay.
func (c *Coordinator) submit(cfg Config, active int) error {
	switch cfg.Mode {
	case ModeImmediate:
		// Draws already happened on the immediate context.
		return nil

	case ModeFrozen:
		slot := &c.slots[0]
		if slot.buf == nil {
			return fmt.Errorf("%w: frozen frame with no retained buffer", ErrSubmission)
		}
		if err := c.dev.Execute(slot.buf, true); err != nil {
			return fmt.Errorf("%w: worker 0: %v", ErrSubmission, err)
		}
		slot.retain()
		return nil

	default: // ModeDeferred
		for i := 0; i < active; i++ {
			slot := &c.slots[i]
			if slot.state != slotRecorded {
				return fmt.Errorf("%w: worker %d has no recorded buffer", ErrSubmission, i)
			}
			buf := slot.take()
			err := c.dev.Execute(buf, false)
			c.dev.Release(buf)
			if err != nil {
				return fmt.Errorf("%w: worker %d: %v", ErrSubmission, i, err)
			}
		}
		return nil
	}
}

// commit swaps the pending configuration in, if one was staged. Leaving
// frozen mode releases the retained buffer here, exactly once, before the
// next frame can partition under the new configuration.
func (c *Coordinator) commit(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	next := *c.pending
	c.pending = nil

	if next.Mode != cfg.Mode {
		c.releaseRetainedLocked()
		Logger().Info("mode switched", "from", cfg.Mode.String(), "to", next.Mode.String())
	}
	c.current = next
}

// releaseRetainedLocked frees any buffers retained across frames.
// Callers hold c.mu (or have exclusive access during Close).
func (c *Coordinator) releaseRetainedLocked() {
	for i := range c.slots {
		if c.slots[i].state == slotRetained {
			c.dev.Release(c.slots[i].take())
		}
	}
}

// releaseRecorded frees buffers stranded in the recorded state by a failed
// frame, so a fatal frame does not also leak.
func (c *Coordinator) releaseRecorded() {
	for i := range c.slots {
		if c.slots[i].state == slotRecorded {
			c.dev.Release(c.slots[i].take())
		}
	}
}

// Close releases retained buffers, destroys the worker contexts, stops the
// pool and closes the device. Close is safe to call once after any frame;
// the coordinator cannot render afterwards.
func (c *Coordinator) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.releaseRetainedLocked()
	for i := range c.slots {
		if c.slots[i].ctx != nil {
			c.slots[i].ctx.Destroy()
			c.slots[i].ctx = nil
		}
	}
	c.pool.Close()
	c.dev.Close()
}
