package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli"

	"github.com/gogpu/cubefield"
	"github.com/gogpu/cubefield/backend"
	"github.com/gogpu/cubefield/internal/stats"

	// Register the render devices.
	_ "github.com/gogpu/cubefield/backend/headless"
	_ "github.com/gogpu/cubefield/backend/wgpu"
)

// selectDevice resolves the --device flag to a registered device.
func selectDevice(ctx *cli.Context) (backend.Device, error) {
	if name := ctx.String("device"); name != "" {
		return backend.New(name)
	}
	return backend.Default(), nil
}

// runInteractive opens a window and renders until Escape or window close.
func runInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := configFromFlags(ctx)
	if err != nil {
		return err
	}
	dev, err := selectDevice(ctx)
	if err != nil {
		return err
	}

	// GLFW requires the main OS thread.
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(ctx.Int("width"), ctx.Int("height"), "cubefield", nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	// Pending input for the next frame. The key callback runs on the main
	// thread during PollEvents, so no locking is needed.
	var input cubefield.Input
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			input.Press(cubefield.ActionExit)
		case glfw.KeyUp:
			input.Press(cubefield.ActionGridUp)
		case glfw.KeyDown:
			input.Press(cubefield.ActionGridDown)
		case glfw.KeyRight:
			input.Press(cubefield.ActionWorkersUp)
		case glfw.KeyLeft:
			input.Press(cubefield.ActionWorkersDown)
		case glfw.KeyM:
			input.Press(cubefield.ActionCycleMode)
		case glfw.KeyU:
			input.Press(cubefield.ActionToggleUpload)
		case glfw.KeyL:
			input.Press(cubefield.ActionToggleLoad)
		}
	})

	collector := stats.NewCollector(0)
	sink := func(fs cubefield.FrameStats) { collector.Record(fs) }

	var broadcaster *stats.Broadcaster
	if addr := ctx.String("stats-addr"); addr != "" {
		broadcaster = stats.NewBroadcaster()
		go func() {
			if err := broadcaster.ListenAndServe(addr); err != nil {
				fmt.Fprintln(cli.ErrWriter, "stats server:", err)
			}
		}()
		inner := sink
		sink = func(fs cubefield.FrameStats) {
			inner(fs)
			broadcaster.Publish(fs)
		}
	}

	coord, err := cubefield.New(dev,
		cubefield.WithConfig(cfg),
		cubefield.WithStatsSink(sink),
	)
	if err != nil {
		return err
	}
	defer coord.Close()

	start := time.Now()
	lastTitle := time.Now()
	for !window.ShouldClose() {
		glfw.PollEvents()

		coord.Update(input)
		input = cubefield.Input{}

		if err := coord.RenderFrame(time.Since(start).Seconds()); err != nil {
			return err
		}

		current := coord.Config()
		if current.ExitRequested {
			window.SetShouldClose(true)
		}

		// Refresh the title once a second with the rolling summary.
		if time.Since(lastTitle) >= time.Second {
			s := collector.Summary()
			window.SetTitle(fmt.Sprintf("cubefield | %s | %dx%d | %d workers | %.1f fps",
				current.Mode, current.GridSize, current.GridSize,
				current.ActiveWorkers(), s.FPS))
			lastTitle = time.Now()
		}

		window.SwapBuffers()
	}

	printSummary(collector.Summary())
	return nil
}
