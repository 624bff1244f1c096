package cubefield

import "github.com/gogpu/cubefield/backend"

// slotState tags who currently owns a worker slot's command buffer.
type slotState uint8

const (
	// slotEmpty: no buffer. The worker may record into the slot's context.
	slotEmpty slotState = iota

	// slotRecorded: the worker finished recording and handed the buffer to
	// the coordinator; it has not been executed yet. Waiting for submission.
	slotRecorded

	// slotRetained: the buffer was submitted and kept for replay (frozen
	// mode). It survives frames until the mode changes.
	slotRetained
)

// workerSlot is one entry of the fixed slot table: a per-worker recording
// context plus the buffer ownership state. Slots are allocated at startup
// and never resized.
//
// Access rules: during the recording window, worker i exclusively writes
// slot i. Outside it — after the join barrier — only the coordinator reads
// or writes slots. These two windows never overlap, so the table needs no
// locking.
type workerSlot struct {
	ctx   backend.Context
	buf   backend.CommandBuffer
	state slotState
}

// take hands the slot's buffer to the caller and empties the slot.
func (s *workerSlot) take() backend.CommandBuffer {
	buf := s.buf
	s.buf = nil
	s.state = slotEmpty
	return buf
}

// store records a freshly finished buffer in the slot.
func (s *workerSlot) store(buf backend.CommandBuffer) {
	s.buf = buf
	s.state = slotRecorded
}

// retain marks the slot's buffer as kept across frames.
func (s *workerSlot) retain() {
	s.state = slotRetained
}
