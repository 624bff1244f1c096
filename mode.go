package cubefield

// RenderMode selects the per-frame recording and submission strategy.
type RenderMode int

const (
	// ModeImmediate records every draw directly on the immediate context.
	// No command buffers are created; worker 0 does all the work inline.
	ModeImmediate RenderMode = iota

	// ModeDeferred partitions the grid across workers, records one command
	// buffer per worker in parallel, then executes and releases the buffers
	// in worker-index order every frame.
	ModeDeferred

	// ModeFrozen records a single command buffer for the whole grid once,
	// then replays it unchanged on every subsequent frame until the mode
	// changes. Recording cost is paid exactly once.
	ModeFrozen
)

// numModes is the cycle length for Input mode switching.
const numModes = 3

// String returns the render mode name.
func (m RenderMode) String() string {
	switch m {
	case ModeImmediate:
		return "Immediate"
	case ModeDeferred:
		return "Deferred"
	case ModeFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// Next returns the mode that follows m in the cycle
// Immediate -> Deferred -> Frozen -> Immediate.
func (m RenderMode) Next() RenderMode {
	return (m + 1) % numModes
}
