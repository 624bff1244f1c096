package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/gogpu/cubefield"
)

func frameStats(frame uint64, frameTime time.Duration) cubefield.FrameStats {
	return cubefield.FrameStats{
		Frame:      frame,
		Mode:       cubefield.ModeDeferred,
		GridSize:   8,
		Workers:    4,
		Instances:  64,
		Recorded:   true,
		RecordTime: frameTime / 2,
		SubmitTime: frameTime / 4,
		FrameTime:  frameTime,
	}
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector(10)
	s := c.Summary()

	if s.Frames != 0 {
		t.Errorf("Frames = %d, want 0", s.Frames)
	}
	if s.Window != 0 {
		t.Errorf("Window = %d, want 0", s.Window)
	}
	if s.FPS != 0 {
		t.Errorf("FPS = %v, want 0", s.FPS)
	}
}

func TestCollectorDefaultWindow(t *testing.T) {
	c := NewCollector(0)
	for i := 0; i < defaultWindow+10; i++ {
		c.Record(frameStats(uint64(i+1), time.Millisecond))
	}

	s := c.Summary()
	if s.Window != defaultWindow {
		t.Errorf("Window = %d, want %d", s.Window, defaultWindow)
	}
	if s.Frames != defaultWindow+10 {
		t.Errorf("Frames = %d, want %d", s.Frames, defaultWindow+10)
	}
}

func TestCollectorAverages(t *testing.T) {
	c := NewCollector(4)
	c.Record(frameStats(1, 10*time.Millisecond))
	c.Record(frameStats(2, 20*time.Millisecond))

	s := c.Summary()
	if s.Window != 2 {
		t.Fatalf("Window = %d, want 2", s.Window)
	}
	if s.AvgFrame != 15*time.Millisecond {
		t.Errorf("AvgFrame = %v, want 15ms", s.AvgFrame)
	}
	if s.AvgRecord != 7500*time.Microsecond {
		t.Errorf("AvgRecord = %v, want 7.5ms", s.AvgRecord)
	}
	if s.AvgSubmit != 3750*time.Microsecond {
		t.Errorf("AvgSubmit = %v, want 3.75ms", s.AvgSubmit)
	}

	wantFPS := float64(time.Second) / float64(15*time.Millisecond)
	if s.FPS != wantFPS {
		t.Errorf("FPS = %v, want %v", s.FPS, wantFPS)
	}
}

func TestCollectorSlidingWindow(t *testing.T) {
	c := NewCollector(3)

	// Fill past the window; only the last three frames count.
	c.Record(frameStats(1, 100*time.Millisecond))
	c.Record(frameStats(2, 10*time.Millisecond))
	c.Record(frameStats(3, 10*time.Millisecond))
	c.Record(frameStats(4, 10*time.Millisecond))

	s := c.Summary()
	if s.Window != 3 {
		t.Fatalf("Window = %d, want 3", s.Window)
	}
	if s.AvgFrame != 10*time.Millisecond {
		t.Errorf("AvgFrame = %v, want 10ms after eviction", s.AvgFrame)
	}
	if s.Frames != 4 {
		t.Errorf("Frames = %d, want 4", s.Frames)
	}
}

func TestCollectorLast(t *testing.T) {
	c := NewCollector(4)
	c.Record(frameStats(1, time.Millisecond))
	c.Record(frameStats(2, 2*time.Millisecond))

	s := c.Summary()
	if s.Last.Frame != 2 {
		t.Errorf("Last.Frame = %d, want 2", s.Last.Frame)
	}
	if s.Last.FrameTime != 2*time.Millisecond {
		t.Errorf("Last.FrameTime = %v, want 2ms", s.Last.FrameTime)
	}
}

func TestCollectorLastWrapsAround(t *testing.T) {
	c := NewCollector(2)
	for i := 1; i <= 5; i++ {
		c.Record(frameStats(uint64(i), time.Millisecond))
	}

	if got := c.Summary().Last.Frame; got != 5 {
		t.Errorf("Last.Frame = %d, want 5", got)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector(16)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(frameStats(1, time.Millisecond))
				_ = c.Summary()
			}
		}()
	}
	wg.Wait()

	if got := c.Summary().Frames; got != 800 {
		t.Errorf("Frames = %d, want 800", got)
	}
}
