// Command cubefield drives the multithreaded cube field renderer.
//
// The run command opens a window and renders interactively; bench renders a
// fixed number of frames headless and prints per-worker timing tables;
// backends lists the registered devices.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "cubefield"
	app.Usage = "render a spinning cube grid with parallel command recording"
	app.Version = "0.2.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "render interactively in a window",
			Description: `
Open a window and render the cube grid until Escape is pressed.

Keys: Up/Down resize the grid, Left/Right change the worker count,
M cycles the render mode, U toggles the upload strategy, L toggles
the simulated recording load.`,
			Flags:  append(configFlags(), runFlags()...),
			Action: runInteractive,
		},
		{
			Name:        "bench",
			Usage:       "render a fixed number of frames without a window",
			Description: `Render frames on the selected device and print timing statistics.`,
			Flags:       append(configFlags(), benchFlags()...),
			Action:      runBench,
		},
		{
			Name:   "backends",
			Usage:  "list registered render devices",
			Action: listBackends,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// configFlags are the render parameters shared by run and bench.
func configFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "grid",
			Value: 8,
			Usage: "cube instances per grid side",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "recording workers (deferred mode)",
		},
		cli.StringFlag{
			Name:  "mode",
			Value: "deferred",
			Usage: "render mode: immediate, deferred or frozen",
		},
		cli.BoolFlag{
			Name:  "load",
			Usage: "simulate per-instance CPU load while recording",
		},
		cli.BoolFlag{
			Name:  "map-upload",
			Usage: "upload per-draw constants via map-discard",
		},
		cli.StringFlag{
			Name:  "device",
			Usage: "render device (default: best registered)",
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 1024,
			Usage: "window width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 768,
			Usage: "window height",
		},
		cli.StringFlag{
			Name:  "stats-addr",
			Usage: "serve live frame stats over websocket on this address",
		},
	}
}

func benchFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "frames",
			Value: 600,
			Usage: "number of frames to render",
		},
		cli.StringFlag{
			Name:  "stats-addr",
			Usage: "serve live frame stats over websocket on this address",
		},
	}
}
