package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/gogpu/cubefield"
)

// setupLogging installs a text logger at the level selected by the global
// verbosity flags. Without -v the library stays silent.
func setupLogging(ctx *cli.Context) {
	level := slog.LevelInfo
	switch {
	case ctx.GlobalBool("vv"):
		level = slog.LevelDebug
	case ctx.GlobalBool("v"):
	default:
		return
	}

	cubefield.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// parseMode maps the --mode flag value to a render mode.
func parseMode(name string) (cubefield.RenderMode, error) {
	switch name {
	case "immediate":
		return cubefield.ModeImmediate, nil
	case "deferred":
		return cubefield.ModeDeferred, nil
	case "frozen":
		return cubefield.ModeFrozen, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want immediate, deferred or frozen)", name)
	}
}

// configFromFlags builds the starting configuration from command flags.
func configFromFlags(ctx *cli.Context) (cubefield.Config, error) {
	mode, err := parseMode(ctx.String("mode"))
	if err != nil {
		return cubefield.Config{}, err
	}
	cfg := cubefield.Config{
		GridSize:     ctx.Int("grid"),
		WorkerCount:  ctx.Int("workers"),
		Mode:         mode,
		SimulateLoad: ctx.Bool("load"),
		MapUpload:    ctx.Bool("map-upload"),
	}
	return cfg.Clamped(), nil
}
