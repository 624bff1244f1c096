package cubefield

// RowBand is a contiguous half-open range of grid rows assigned to one
// worker for one frame. The bands for a frame cover [0, gridSize) exactly,
// with no gaps and no overlaps.
type RowBand struct {
	// Worker is the slot index that records this band.
	Worker int

	// From is the first row of the band (inclusive).
	From int

	// To is the row after the last row of the band (exclusive).
	To int
}

// Rows returns the number of rows in the band.
func (b RowBand) Rows() int {
	return b.To - b.From
}

// Empty reports whether the band contains no rows.
func (b RowBand) Empty() bool {
	return b.To <= b.From
}

// PartitionRows splits gridSize rows into contiguous bands, one per worker.
// Every band but the last holds gridSize/workers rows; the last band absorbs
// the remainder, which can make it disproportionately large when gridSize is
// not evenly divisible. Coverage matters more than perfect balance here: the
// submission order downstream is band order, so bands must stay contiguous.
//
// workers is clamped to [1, gridSize] so that no band is ever empty; a
// worker that is dispatched must record at least one draw, because finishing
// a command buffer on a context with no recorded work is a backend error.
func PartitionRows(gridSize, workers int) []RowBand {
	if gridSize < 1 {
		gridSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	if workers > gridSize {
		workers = gridSize
	}

	nominal := gridSize / workers
	if nominal < 1 {
		nominal = 1
	}

	bands := make([]RowBand, workers)
	for i := range bands {
		from := i * nominal
		to := from + nominal
		if i == workers-1 {
			to = gridSize
		}
		bands[i] = RowBand{Worker: i, From: from, To: to}
	}
	return bands
}
