package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/cubefield"
	"github.com/gogpu/cubefield/backend"
	"github.com/gogpu/cubefield/internal/stats"
)

// benchTimeStep is the simulated per-frame time advance, decoupling bench
// animation from wall clock so runs are reproducible.
const benchTimeStep = 1.0 / 60.0

// runBench renders a fixed number of frames and prints timing statistics.
func runBench(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := configFromFlags(ctx)
	if err != nil {
		return err
	}
	dev, err := selectDevice(ctx)
	if err != nil {
		return err
	}

	frames := ctx.Int("frames")
	if frames < 1 {
		return fmt.Errorf("frames must be positive, got %d", frames)
	}

	collector := stats.NewCollector(frames)
	sink := func(fs cubefield.FrameStats) { collector.Record(fs) }

	if addr := ctx.String("stats-addr"); addr != "" {
		broadcaster := stats.NewBroadcaster()
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

	seconds := 0.0
	for i := 0; i < frames; i++ {
		if err := coord.RenderFrame(seconds); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		seconds += benchTimeStep
	}

	summary := collector.Summary()
	displayWorkerStats(summary.Last)
	printSummary(summary)
	return nil
}

// displayWorkerStats prints the per-worker breakdown of the last frame.
func displayWorkerStats(fs cubefield.FrameStats) {
	if len(fs.PerWorker) == 0 {
		return
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Rows", "% of grid", "Record time"})
	for _, stat := range fs.PerWorker {
		table.Append([]string{
			fmt.Sprintf("%d", stat.Worker),
			fmt.Sprintf("%d", stat.Rows),
			fmt.Sprintf("%02.1f %%", 100*float64(stat.Rows)/float64(fs.GridSize)),
			stat.RecordTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fs.RecordTime.String()})
	table.Render()

	fmt.Printf("last frame (%s, %d instances)\n%s", fs.Mode, fs.Instances, buf.String())
}

// printSummary prints the rolling averages over the collected window.
func printSummary(s stats.Summary) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Frames", fmt.Sprintf("%d", s.Frames)})
	table.Append([]string{"Avg frame", s.AvgFrame.String()})
	table.Append([]string{"Avg record", s.AvgRecord.String()})
	table.Append([]string{"Avg submit", s.AvgSubmit.String()})
	table.Append([]string{"FPS", fmt.Sprintf("%.1f", s.FPS)})
	table.Render()

	fmt.Printf("summary\n%s", buf.String())
}

// listBackends prints the registered devices.
func listBackends(ctx *cli.Context) error {
	setupLogging(ctx)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Device", "Default"})
	def := backend.Default().Name()
	for _, name := range backend.Available() {
		mark := ""
		if name == def {
			mark = "*"
		}
		table.Append([]string{name, mark})
	}
	table.Render()
	return nil
}
