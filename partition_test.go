package cubefield

import "testing"

func TestPartitionRowsCoverage(t *testing.T) {
	tests := []struct {
		name     string
		gridSize int
		workers  int
		want     []RowBand
	}{
		{
			name:     "even split",
			gridSize: 8,
			workers:  4,
			want: []RowBand{
				{Worker: 0, From: 0, To: 2},
				{Worker: 1, From: 2, To: 4},
				{Worker: 2, From: 4, To: 6},
				{Worker: 3, From: 6, To: 8},
			},
		},
		{
			name:     "remainder absorbed by last band",
			gridSize: 10,
			workers:  3,
			want: []RowBand{
				{Worker: 0, From: 0, To: 3},
				{Worker: 1, From: 3, To: 6},
				{Worker: 2, From: 6, To: 10},
			},
		},
		{
			name:     "single worker",
			gridSize: 5,
			workers:  1,
			want: []RowBand{
				{Worker: 0, From: 0, To: 5},
			},
		},
		{
			name:     "workers clamped to grid size",
			gridSize: 3,
			workers:  8,
			want: []RowBand{
				{Worker: 0, From: 0, To: 1},
				{Worker: 1, From: 1, To: 2},
				{Worker: 2, From: 2, To: 3},
			},
		},
		{
			name:     "single row",
			gridSize: 1,
			workers:  4,
			want: []RowBand{
				{Worker: 0, From: 0, To: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartitionRows(tt.gridSize, tt.workers)
			if len(got) != len(tt.want) {
				t.Fatalf("PartitionRows(%d, %d) = %d bands, want %d",
					tt.gridSize, tt.workers, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("band %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPartitionRowsInvariants(t *testing.T) {
	for gridSize := 1; gridSize <= 32; gridSize++ {
		for workers := 1; workers <= MaxWorkers; workers++ {
			bands := PartitionRows(gridSize, workers)

			next := 0
			for _, b := range bands {
				if b.Empty() {
					t.Fatalf("grid %d workers %d: band %+v is empty", gridSize, workers, b)
				}
				if b.From != next {
					t.Fatalf("grid %d workers %d: band %+v starts at %d, want %d",
						gridSize, workers, b, b.From, next)
				}
				next = b.To
			}
			if next != gridSize {
				t.Fatalf("grid %d workers %d: bands cover [0,%d), want [0,%d)",
					gridSize, workers, next, gridSize)
			}
		}
	}
}

func TestPartitionRowsDegenerateArgs(t *testing.T) {
	bands := PartitionRows(0, 0)
	if len(bands) != 1 || bands[0].Rows() != 1 {
		t.Errorf("PartitionRows(0, 0) = %+v, want one single-row band", bands)
	}
}

func TestRowBandRows(t *testing.T) {
	b := RowBand{Worker: 2, From: 3, To: 7}
	if got := b.Rows(); got != 4 {
		t.Errorf("Rows() = %d, want 4", got)
	}
	if b.Empty() {
		t.Error("Empty() = true for a 4-row band")
	}
	if !(RowBand{From: 5, To: 5}).Empty() {
		t.Error("Empty() = false for a zero-row band")
	}
}
