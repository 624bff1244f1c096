package cubefield

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/cubefield/backend"
)

// loadIterations is the fixed number of redundant transform compositions
// performed per instance when Config.SimulateLoad is set. The work is
// functionally inert; it exists to make recording CPU-bound enough that
// thread contention shows up in frame timings.
const loadIterations = 32

// frameTransforms holds the per-frame values shared by every instance:
// the uniform downscale and the time-driven rotation. Computed once per
// frame and read concurrently by all workers.
type frameTransforms struct {
	scale    mgl32.Mat4
	rotation mgl32.Mat4
}

// newFrameTransforms derives the shared transforms for a frame at the given
// time. Each cube is scaled to 1/gridSize of the field and spins at two
// incommensurate rates so the motion never visibly loops.
func newFrameTransforms(gridSize int, seconds float64) frameTransforms {
	s := 1 / float32(gridSize)
	t := float32(seconds)
	return frameTransforms{
		scale:    mgl32.Scale3D(s, s, s),
		rotation: mgl32.HomogRotate3DY(t).Mul4(mgl32.HomogRotate3DX(t * 0.7)),
	}
}

// instanceTransform composes the world transform for the instance at grid
// cell (x, y): scale, then the shared rotation, then a translation that
// tiles the instances across a grid centered at the origin.
func (ft frameTransforms) instanceTransform(x, y, gridSize int) mgl32.Mat4 {
	step := 2 / float32(gridSize)
	half := float32(gridSize-1) / 2
	tx := (float32(x) - half) * step
	ty := (float32(y) - half) * step

	return mgl32.Translate3D(tx, ty, 0).Mul4(ft.rotation).Mul4(ft.scale)
}

// renderRows records the draw commands for every instance in the band into
// ctx. It only records: submission stays with the coordinator. For
// non-immediate modes the caller finishes the context afterwards.
//
// renderRows runs concurrently with other bands' renderers; everything it
// touches is either read-only (cfg, ft) or exclusively owned (ctx).
func renderRows(ctx backend.Context, band RowBand, cfg Config, ft frameTransforms) error {
	strategy := backend.UploadSubresource
	if cfg.MapUpload {
		strategy = backend.UploadMapDiscard
	}

	for y := band.From; y < band.To; y++ {
		for x := 0; x < cfg.GridSize; x++ {
			world := ft.instanceTransform(x, y, cfg.GridSize)

			if cfg.SimulateLoad {
				// Identity multiplications keep the result bit-identical
				// while burning the intended cycles.
				for i := 0; i < loadIterations; i++ {
					world = world.Mul4(mgl32.Ident4())
				}
			}

			if err := ctx.RecordDraw(world, strategy); err != nil {
				return fmt.Errorf("record instance (%d,%d): %w", x, y, err)
			}
		}
	}
	return nil
}
