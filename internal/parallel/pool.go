// Package parallel provides the worker pool used for per-frame command
// recording. One pool lives for the coordinator's lifetime; every frame
// submits one recording task per active worker and blocks on a single join
// barrier.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines that execute recording tasks.
//
// Each worker has its own queue and can steal from the others when idle,
// which balances frames where one row band is much larger than the rest
// (the last band absorbs the grid remainder).
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker task queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting tasks.
	running atomic.Bool
}

// NewWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. Workers start
// immediately and wait for tasks.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}

	// A frame never queues more than one task per worker, but a small
	// buffer keeps ExecuteAll from blocking on handoff.
	for i := range workers {
		p.queues[i] = make(chan func(), 4)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	mine := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(mine)
			return

		case task := <-mine:
			if task != nil {
				task()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
			} else {
				select {
				case <-p.done:
					p.drain(mine)
					return
				case task := <-mine:
					if task != nil {
						task()
					}
				}
			}
		}
	}
}

// drain executes all remaining tasks in a queue before shutdown, so a
// frame in flight still reaches its join barrier.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			if task != nil {
				task()
			}
		default:
			return
		}
	}
}

// steal attempts to take a task from another worker's queue.
// Returns nil if no task is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}

		select {
		case task := <-p.queues[i]:
			return task
		default:
		}
	}
	return nil
}

// ExecuteAll distributes tasks across workers and blocks until every task
// has completed. This is the frame's join barrier: when it returns, all
// recording for the frame is done and the slots may be read.
// If the pool is closed, ExecuteAll is a no-op.
func (p *WorkerPool) ExecuteAll(tasks []func()) {
	if len(tasks) == 0 || !p.running.Load() {
		return
	}

	var barrier sync.WaitGroup
	barrier.Add(len(tasks))

	for i, task := range tasks {
		workerID := i % p.workers
		fn := task

		wrapped := func() {
			defer barrier.Done()
			fn()
		}

		select {
		case p.queues[workerID] <- wrapped:
		case <-p.done:
			barrier.Done()
		}
	}

	barrier.Wait()
}

// Close shuts the pool down: it stops accepting tasks, lets queued tasks
// finish, and joins all workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting tasks.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
