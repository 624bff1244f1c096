package cubefield

// Bounds for the live-tunable render parameters.
const (
	// MaxGridSize is the upper bound for instances per grid side.
	MaxGridSize = 64

	// MaxWorkers is the number of pre-allocated worker slots. WorkerCount
	// is clamped to this bound; the slot table is never resized.
	MaxWorkers = 16
)

// Config is an immutable snapshot of the render parameters for one frame.
// Configs are value types: they are copied, never shared. The Coordinator
// holds exactly one current Config and at most one pending Config staged by
// Update; the pending value becomes current only at the frame boundary.
type Config struct {
	// ExitRequested tells the presentation loop to stop after the current
	// frame completes.
	ExitRequested bool

	// GridSize is the number of cube instances per side, in [1, MaxGridSize].
	// The total instance count is GridSize squared.
	GridSize int

	// WorkerCount is the requested number of recording workers, in
	// [1, MaxWorkers]. Only meaningful in ModeDeferred.
	WorkerCount int

	// Mode selects the recording/submission strategy.
	Mode RenderMode

	// SimulateLoad performs redundant transform math per instance during
	// recording. Functionally inert; it exists to make thread contention
	// visible when profiling.
	SimulateLoad bool

	// MapUpload selects the map-discard upload strategy for per-draw
	// constants instead of direct subresource updates. Both strategies are
	// semantically equivalent.
	MapUpload bool
}

// DefaultConfig returns the startup configuration: an 8x8 grid rendered by
// four deferred workers.
func DefaultConfig() Config {
	return Config{
		GridSize:    8,
		WorkerCount: 4,
		Mode:        ModeDeferred,
	}
}

// Clamped returns a copy of c with GridSize and WorkerCount forced into
// their valid ranges. Out-of-range values are a configuration error by the
// caller; they are corrected silently, never propagated.
func (c Config) Clamped() Config {
	if c.GridSize < 1 {
		c.GridSize = 1
	} else if c.GridSize > MaxGridSize {
		c.GridSize = MaxGridSize
	}
	if c.WorkerCount < 1 {
		c.WorkerCount = 1
	} else if c.WorkerCount > MaxWorkers {
		c.WorkerCount = MaxWorkers
	}
	return c
}

// InstanceCount returns the total number of cube instances for this config.
func (c Config) InstanceCount() int {
	return c.GridSize * c.GridSize
}

// ActiveWorkers returns the number of workers that will actually record
// this frame: one for ModeImmediate and ModeFrozen, otherwise WorkerCount
// clamped so that no worker receives an empty row band.
func (c Config) ActiveWorkers() int {
	if c.Mode != ModeDeferred {
		return 1
	}
	n := c.WorkerCount
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n > c.GridSize {
		n = c.GridSize
	}
	if n < 1 {
		n = 1
	}
	return n
}
