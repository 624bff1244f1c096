package cubefield

import "time"

// WorkerStat describes one worker's share of a frame.
type WorkerStat struct {
	// Worker is the slot index.
	Worker int

	// Rows is the number of grid rows the worker recorded.
	Rows int

	// RecordTime is how long the worker spent recording its band.
	// Zero when the frame replayed a retained buffer.
	RecordTime time.Duration
}

// FrameStats describes one completed frame. A stats sink installed with
// WithStatsSink receives a FrameStats value after every frame; the value is
// fully detached from coordinator state and safe to retain.
type FrameStats struct {
	// Frame is the frame sequence number, starting at 1.
	Frame uint64

	// Mode is the render mode the frame ran under.
	Mode RenderMode

	// GridSize and Workers echo the frame's effective configuration.
	GridSize int
	Workers  int

	// Instances is the number of draws the frame represents.
	Instances int

	// Recorded reports whether any recording happened; false for frozen
	// frames that only replayed.
	Recorded bool

	// RecordTime covers dispatch through the join barrier.
	// SubmitTime covers command buffer execution.
	// FrameTime is the full RenderFrame duration.
	RecordTime time.Duration
	SubmitTime time.Duration
	FrameTime  time.Duration

	// PerWorker holds one entry per dispatched worker, in slot order.
	PerWorker []WorkerStat
}
