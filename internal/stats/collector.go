// Package stats collects and publishes frame statistics.
//
// The collector aggregates FrameStats values over a sliding window; the
// broadcaster streams them as JSON over a websocket for external dashboards.
// Both sit strictly outside the frame path: the coordinator only hands them
// completed, detached FrameStats values through its stats sink.
package stats

import (
	"sync"
	"time"

	"github.com/gogpu/cubefield"
)

// defaultWindow is the number of recent frames kept for averaging.
const defaultWindow = 120

// Summary is an aggregate view over the collector's window.
type Summary struct {
	// Frames is the lifetime frame count.
	Frames uint64

	// Window is the number of frames the averages cover.
	Window int

	// AvgFrame, AvgRecord and AvgSubmit are mean durations over the window.
	AvgFrame  time.Duration
	AvgRecord time.Duration
	AvgSubmit time.Duration

	// FPS is derived from AvgFrame.
	FPS float64

	// Last echoes the most recent frame's stats.
	Last cubefield.FrameStats
}

// Collector aggregates frame statistics over a sliding window.
// It is safe for concurrent use; Record is non-blocking and cheap enough
// to be installed directly as the coordinator's stats sink.
type Collector struct {
	mu     sync.Mutex
	window []cubefield.FrameStats
	next   int
	filled int
	total  uint64
}

// NewCollector creates a collector keeping the given number of recent
// frames. A non-positive window selects the default.
func NewCollector(window int) *Collector {
	if window <= 0 {
		window = defaultWindow
	}
	return &Collector{window: make([]cubefield.FrameStats, window)}
}

// Record adds one frame's stats. It implements the coordinator's stats
// sink signature.
func (c *Collector) Record(fs cubefield.FrameStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.window[c.next] = fs
	c.next = (c.next + 1) % len(c.window)
	if c.filled < len(c.window) {
		c.filled++
	}
	c.total++
}

// Summary returns a snapshot of the aggregates. The snapshot may lag
// Record calls slightly; that is acceptable for monitoring.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Frames: c.total, Window: c.filled}
	if c.filled == 0 {
		return s
	}

	var frame, record, submit time.Duration
	for i := 0; i < c.filled; i++ {
		fs := c.window[i]
		frame += fs.FrameTime
		record += fs.RecordTime
		submit += fs.SubmitTime
	}
	n := time.Duration(c.filled)
	s.AvgFrame = frame / n
	s.AvgRecord = record / n
	s.AvgSubmit = submit / n
	if s.AvgFrame > 0 {
		s.FPS = float64(time.Second) / float64(s.AvgFrame)
	}

	last := c.next - 1
	if last < 0 {
		last = len(c.window) - 1
	}
	s.Last = c.window[last]
	return s
}
