package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	if got := p.Workers(); got != 4 {
		t.Errorf("Workers() = %d, want 4", got)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false for a fresh pool")
	}
}

func TestNewWorkerPoolDefaultsToGOMAXPROCS(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()

	if got := p.Workers(); got < 1 {
		t.Errorf("Workers() = %d, want at least 1", got)
	}
}

func TestExecuteAllRunsEveryTask(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var ran atomic.Int32
	tasks := make([]func(), 16)
	for i := range tasks {
		tasks[i] = func() { ran.Add(1) }
	}

	p.ExecuteAll(tasks)

	if got := ran.Load(); got != 16 {
		t.Errorf("ran %d tasks, want 16", got)
	}
}

func TestExecuteAllIsJoinBarrier(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	// Every task signals completion before ExecuteAll may return; a
	// straggler with a deliberate delay must still be joined.
	var mu sync.Mutex
	finished := make(map[int]bool)

	tasks := make([]func(), 4)
	for i := range tasks {
		i := i
		tasks[i] = func() {
			if i == 0 {
				time.Sleep(10 * time.Millisecond)
			}
			mu.Lock()
			finished[i] = true
			mu.Unlock()
		}
	}

	p.ExecuteAll(tasks)

	mu.Lock()
	defer mu.Unlock()
	for i := range tasks {
		if !finished[i] {
			t.Errorf("task %d not finished at barrier", i)
		}
	}
}

func TestExecuteAllMoreTasksThanWorkers(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var ran atomic.Int32
	tasks := make([]func(), 7)
	for i := range tasks {
		tasks[i] = func() { ran.Add(1) }
	}

	p.ExecuteAll(tasks)

	if got := ran.Load(); got != 7 {
		t.Errorf("ran %d tasks, want 7", got)
	}
}

func TestExecuteAllEmpty(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	p.ExecuteAll(nil) // must not block or panic
}

func TestWorkStealing(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	// Uneven tasks: worker 0's queue gets the slow task, the rest are
	// quick. All must complete regardless of which goroutine runs them.
	var ran atomic.Int32
	tasks := make([]func(), 8)
	for i := range tasks {
		i := i
		tasks[i] = func() {
			if i == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			ran.Add(1)
		}
	}

	p.ExecuteAll(tasks)

	if got := ran.Load(); got != 8 {
		t.Errorf("ran %d tasks, want 8", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close() // second close must be a no-op

	if p.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
}

func TestExecuteAllAfterClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()

	var ran atomic.Int32
	p.ExecuteAll([]func(){func() { ran.Add(1) }})

	if got := ran.Load(); got != 0 {
		t.Errorf("closed pool ran %d tasks, want 0", got)
	}
}

func TestSequentialFrames(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	// One batch per frame, many frames, like the coordinator's render loop.
	var ran atomic.Int32
	for frame := 0; frame < 50; frame++ {
		tasks := make([]func(), 4)
		for i := range tasks {
			tasks[i] = func() { ran.Add(1) }
		}
		p.ExecuteAll(tasks)
	}

	if got := ran.Load(); got != 200 {
		t.Errorf("ran %d tasks over 50 frames, want 200", got)
	}
}
