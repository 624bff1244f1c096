package cubefield

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/cubefield/backend"
)

// recordingContext captures every RecordDraw call for inspection.
type recordingContext struct {
	transforms []mgl32.Mat4
	strategies []backend.UploadStrategy
	failAfter  int // fail on the nth draw when > 0
}

func (c *recordingContext) RecordDraw(transform mgl32.Mat4, strategy backend.UploadStrategy) error {
	if c.failAfter > 0 && len(c.transforms)+1 >= c.failAfter {
		return backend.ErrNotInitialized
	}
	c.transforms = append(c.transforms, transform)
	c.strategies = append(c.strategies, strategy)
	return nil
}

func (c *recordingContext) Finish() (backend.CommandBuffer, error) {
	return nil, backend.ErrEmptyRecording
}

func (c *recordingContext) Destroy() {}

func TestRenderRowsDrawCount(t *testing.T) {
	cfg := Config{GridSize: 6}
	ft := newFrameTransforms(cfg.GridSize, 1.5)

	ctx := &recordingContext{}
	band := RowBand{Worker: 0, From: 2, To: 5}
	if err := renderRows(ctx, band, cfg, ft); err != nil {
		t.Fatalf("renderRows: %v", err)
	}

	want := band.Rows() * cfg.GridSize
	if len(ctx.transforms) != want {
		t.Errorf("recorded %d draws, want %d", len(ctx.transforms), want)
	}
	for _, s := range ctx.strategies {
		if s != backend.UploadSubresource {
			t.Errorf("strategy = %v, want %v", s, backend.UploadSubresource)
		}
	}
}

func TestRenderRowsMapUpload(t *testing.T) {
	cfg := Config{GridSize: 2, MapUpload: true}
	ft := newFrameTransforms(cfg.GridSize, 0)

	ctx := &recordingContext{}
	if err := renderRows(ctx, RowBand{From: 0, To: 2}, cfg, ft); err != nil {
		t.Fatalf("renderRows: %v", err)
	}
	for _, s := range ctx.strategies {
		if s != backend.UploadMapDiscard {
			t.Errorf("strategy = %v, want %v", s, backend.UploadMapDiscard)
		}
	}
}

func TestRenderRowsSimulateLoadIsInert(t *testing.T) {
	ft := newFrameTransforms(4, 2.25)

	plain := &recordingContext{}
	loaded := &recordingContext{}
	band := RowBand{From: 0, To: 4}

	if err := renderRows(plain, band, Config{GridSize: 4}, ft); err != nil {
		t.Fatalf("renderRows: %v", err)
	}
	if err := renderRows(loaded, band, Config{GridSize: 4, SimulateLoad: true}, ft); err != nil {
		t.Fatalf("renderRows with load: %v", err)
	}

	if len(plain.transforms) != len(loaded.transforms) {
		t.Fatalf("draw counts differ: %d vs %d", len(plain.transforms), len(loaded.transforms))
	}
	for i := range plain.transforms {
		if plain.transforms[i] != loaded.transforms[i] {
			t.Fatalf("draw %d: simulated load changed the transform", i)
		}
	}
}

func TestRenderRowsPropagatesError(t *testing.T) {
	cfg := Config{GridSize: 4}
	ft := newFrameTransforms(cfg.GridSize, 0)

	ctx := &recordingContext{failAfter: 3}
	err := renderRows(ctx, RowBand{From: 0, To: 4}, cfg, ft)
	if err == nil {
		t.Fatal("renderRows should propagate the context error")
	}
}

func TestInstanceTransformCentersGrid(t *testing.T) {
	// With no rotation (t=0) the grid must be symmetric about the origin:
	// opposite corners translate to opposite positions.
	ft := newFrameTransforms(4, 0)

	corner := ft.instanceTransform(0, 0, 4)
	opposite := ft.instanceTransform(3, 3, 4)

	// Translation lives in the last column of a column-major mat4.
	cx, cy := corner.At(0, 3), corner.At(1, 3)
	ox, oy := opposite.At(0, 3), opposite.At(1, 3)

	if math.Abs(float64(cx+ox)) > 1e-6 || math.Abs(float64(cy+oy)) > 1e-6 {
		t.Errorf("corners not symmetric: (%v,%v) vs (%v,%v)", cx, cy, ox, oy)
	}

	// Center cell of an odd grid sits at the origin.
	ft3 := newFrameTransforms(3, 0)
	center := ft3.instanceTransform(1, 1, 3)
	if math.Abs(float64(center.At(0, 3))) > 1e-6 || math.Abs(float64(center.At(1, 3))) > 1e-6 {
		t.Errorf("center cell not at origin: (%v,%v)", center.At(0, 3), center.At(1, 3))
	}
}

func TestInstanceTransformScales(t *testing.T) {
	ft := newFrameTransforms(8, 0)
	m := ft.instanceTransform(0, 0, 8)

	// At t=0 the rotation is identity, so the upper-left 3x3 is the pure
	// 1/gridSize scale.
	want := float32(1) / 8
	for i := 0; i < 3; i++ {
		if got := m.At(i, i); math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("diagonal[%d] = %v, want %v", i, got, want)
		}
	}
}
