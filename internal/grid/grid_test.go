// internal/grid/grid_test.go - Unit tests for partitioning and neighborhoods
package grid

import (
	"testing"
)

func TestNewBounds(t *testing.T) {
	tests := []struct {
		name    string
		coords  [4]float64
		wantErr bool
	}{
		{
			name:    "valid world extent",
			coords:  [4]float64{-180, -85.0511, 180, 85.0511},
			wantErr: false,
		},
		{
			name:    "zero width",
			coords:  [4]float64{10, 0, 10, 5},
			wantErr: true,
		},
		{
			name:    "zero height",
			coords:  [4]float64{0, 5, 10, 5},
			wantErr: true,
		},
		{
			name:    "inverted x axis",
			coords:  [4]float64{10, 0, -10, 5},
			wantErr: true,
		},
		{
			name:    "inverted y axis",
			coords:  [4]float64{0, 5, 10, -5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBounds(tt.coords[0], tt.coords[1], tt.coords[2], tt.coords[3])
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Bounds
		wantErr bool
	}{
		{
			name:  "plain values",
			input: "-180, -85.0511, 180, 85.0511",
			want:  Bounds{MinX: -180, MinY: -85.0511, MaxX: 180, MaxY: 85.0511},
		},
		{
			name:  "no spaces",
			input: "0,0,10,10",
			want:  Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		},
		{
			name:    "too few values",
			input:   "1, 2, 3",
			wantErr: true,
		},
		{
			name:    "non-numeric",
			input:   "a, b, c, d",
			wantErr: true,
		},
		{
			name:    "degenerate",
			input:   "5, 5, 5, 5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBounds(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBounds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTileBoundsFormulas(t *testing.T) {
	full := Bounds{MinX: -180, MinY: -85.0511, MaxX: 180, MaxY: 85.0511}

	// Zoom 0 is the full extent.
	b := TileBounds(0, 0, 0, full)
	if b != full {
		t.Errorf("zoom 0 tile = %v, want full extent %v", b, full)
	}

	// Row 0 must be the northernmost band.
	top := TileBounds(0, 0, 2, full)
	below := TileBounds(0, 1, 2, full)
	if top.MaxY != full.MaxY {
		t.Errorf("row 0 MaxY = %v, want %v", top.MaxY, full.MaxY)
	}
	if !(below.MaxY < top.MaxY) {
		t.Errorf("row 1 should lie south of row 0: %v vs %v", below.MaxY, top.MaxY)
	}
}

func TestTileBoundsAdjacencyExact(t *testing.T) {
	full := Bounds{MinX: -180, MinY: -85.0511287798066, MaxX: 180, MaxY: 85.0511287798066}

	for _, zoom := range []int{1, 3, 5, 8} {
		n := 1 << uint(zoom)
		for _, col := range []int{0, 1, n / 2, n - 2} {
			for _, row := range []int{0, 1, n / 2, n - 2} {
				here := TileBounds(col, row, zoom, full)
				east := TileBounds(col+1, row, zoom, full)
				south := TileBounds(col, row+1, zoom, full)

				if here.MaxX != east.MinX {
					t.Errorf("zoom %d (%d,%d): east edge not bit-exact: %v != %v",
						zoom, col, row, here.MaxX, east.MinX)
				}
				if here.MinY != south.MaxY {
					t.Errorf("zoom %d (%d,%d): south edge not bit-exact: %v != %v",
						zoom, col, row, here.MinY, south.MaxY)
				}
			}
		}
	}
}

func TestTileBoundsCoverage(t *testing.T) {
	full := Bounds{MinX: -20, MinY: -10, MaxX: 44, MaxY: 22}
	zoom := 3
	n := 1 << uint(zoom)

	// The first column starts at the full extent's west edge and the last
	// column ends at its east edge; same for the row axis.
	first := TileBounds(0, 0, zoom, full)
	last := TileBounds(n-1, n-1, zoom, full)
	if first.MinX != full.MinX || first.MaxY != full.MaxY {
		t.Errorf("origin tile does not anchor at full extent: %v", first)
	}
	if last.MaxX != full.MaxX || last.MinY != full.MinY {
		t.Errorf("final tile does not close the full extent: %v", last)
	}

	var widthSum, heightSum float64
	for i := 0; i < n; i++ {
		widthSum += TileBounds(i, 0, zoom, full).Width()
		heightSum += TileBounds(0, i, zoom, full).Height()
	}
	if diff := widthSum - full.Width(); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("tile widths sum to %v, want %v", widthSum, full.Width())
	}
	if diff := heightSum - full.Height(); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("tile heights sum to %v, want %v", heightSum, full.Height())
	}
}

func TestTileBoundsNegativeOffsets(t *testing.T) {
	full := Bounds{MinX: 0, MinY: 0, MaxX: 32, MaxY: 32}

	// Negative offsets are permitted and shift the tile outside the grid.
	b := TileBounds(-1, -1, 2, full)
	if b.MinX != -8 || b.MaxX != 0 {
		t.Errorf("column -1 bounds = [%v, %v], want [-8, 0]", b.MinX, b.MaxX)
	}
	if b.MinY != 32 || b.MaxY != 40 {
		t.Errorf("row -1 bounds = [%v, %v], want [32, 40]", b.MinY, b.MaxY)
	}
}

func TestNeighborhoodCells(t *testing.T) {
	n := NewNeighborhood(3)

	if n.Count() != 9 {
		t.Fatalf("Count() = %d, want 9", n.Count())
	}

	// Linear order walks columns slowly and rows quickly, anchored at the
	// center cell (1,1).
	wantOrder := []Cell{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
		{2, 0}, {2, 1}, {2, 2},
	}

	seen := make(map[Cell]bool)
	for i := 0; i < n.Count(); i++ {
		c := n.Cell(i)
		if c != wantOrder[i] {
			t.Errorf("Cell(%d) = %v, want %v", i, c, wantOrder[i])
		}
		if seen[c] {
			t.Errorf("cell %v produced more than once", c)
		}
		seen[c] = true

		if back := n.Index(c); back != i {
			t.Errorf("Index(%v) = %d, want %d", c, back, i)
		}
	}
}

func TestNeighborhoodLargerWindow(t *testing.T) {
	n := NewNeighborhood(5)

	if n.Count() != 25 {
		t.Fatalf("Count() = %d, want 25", n.Count())
	}
	if first := n.Cell(0); first != (Cell{0, 0}) {
		t.Errorf("Cell(0) = %v, want {0 0}", first)
	}
	if center := n.Cell(12); center != (Cell{2, 2}) {
		t.Errorf("Cell(12) = %v, want center {2 2}", center)
	}
	if last := n.Cell(24); last != (Cell{4, 4}) {
		t.Errorf("Cell(24) = %v, want {4 4}", last)
	}
}
