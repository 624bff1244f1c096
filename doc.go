// Package cubefield implements a multi-worker frame-rendering coordinator.
//
// # Overview
//
// cubefield renders a gridSize x gridSize field of spinning cube instances
// and exists to exercise one scheduling discipline: splitting per-frame draw
// recording across parallel workers, each with its own deferred recording
// context, and replaying the finished command buffers on the single
// immediate context in a deterministic order.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/cubefield"
//	    "github.com/gogpu/cubefield/backend"
//	    _ "github.com/gogpu/cubefield/backend/headless"
//	)
//
//	dev := backend.MustDevice("headless")
//	coord, _ := cubefield.New(dev)
//	defer coord.Close()
//
//	for t := 0.0; t < 5.0; t += 1.0 / 60 {
//	    coord.Update(cubefield.Input{})
//	    coord.RenderFrame(t)
//	}
//
// # Render Modes
//
// Three modes cover the interesting points of the recording spectrum:
//   - ModeImmediate: draw straight to the immediate context, no buffers.
//   - ModeDeferred: N workers record in parallel, buffers are executed and
//     released every frame.
//   - ModeFrozen: record once on worker 0, replay the same buffer forever.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Coordinator, Config, Input, RowBand, FrameStats
//   - backend/: the GPU device boundary, with a registry of devices
//   - internal/parallel: the worker pool used for parallel recording
//   - internal/stats: frame statistics collection and broadcasting
//
// # Concurrency Model
//
// One join barrier per frame. Workers share nothing mutable except their own
// slot; the coordinator alone touches slots outside the recording window and
// alone submits to the immediate context. Configuration changes are staged by
// Update and committed by RenderFrame only after submission completes.
package cubefield

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"
)
