// internal/grid/grid.go - Bounding box partitioning and neighborhood mapping
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/pawelpiwowarski/wms-scraper/internal"
)

// Bounds is an axis-aligned rectangle in a planar coordinate reference
// system. Immutable once constructed; MinX < MaxX and MinY < MaxY.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBounds constructs a Bounds value and enforces its invariant.
// A violated invariant is an input error, never silently corrected.
func NewBounds(minX, minY, maxX, maxY float64) (Bounds, error) {
	if minX >= maxX || minY >= maxY {
		return Bounds{}, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("invalid bounding box (%v, %v, %v, %v): min must be strictly less than max on both axes", minX, minY, maxX, maxY), nil)
	}
	return Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

// ParseBounds parses the textual "minx, miny, maxx, maxy" form
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, internal.NewError(internal.ErrorCodeValidation,
			"bounding box must have 4 comma-separated values: minx,miny,maxx,maxy", nil)
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Bounds{}, internal.NewError(internal.ErrorCodeValidation,
				fmt.Sprintf("invalid coordinate value: %s", part), err)
		}
		coords[i] = val
	}

	return NewBounds(coords[0], coords[1], coords[2], coords[3])
}

// Width returns the horizontal extent
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// Bound converts to the orb representation
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinX, b.MinY},
		Max: orb.Point{b.MaxX, b.MaxY},
	}
}

// String returns the textual "minx, miny, maxx, maxy" form
func (b Bounds) String() string {
	return fmt.Sprintf("%v, %v, %v, %v", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// TileBounds computes the sub-bounding-box of the tile at (col, row) in the
// 2^zoom by 2^zoom subdivision of the full extent. Column indices increase
// west to east; row 0 is the northernmost band. Adjacent tiles share
// bit-exact edge coordinates, so no rounding is applied anywhere.
//
// The caller is responsible for keeping col/row within [0, 2^zoom);
// out-of-range offsets simply shift the tile outside the notional grid.
func TileBounds(col, row, zoom int, full Bounds) Bounds {
	numTiles := float64(int64(1) << uint(zoom))
	tileWidth := (full.MaxX - full.MinX) / numTiles
	tileHeight := (full.MaxY - full.MinY) / numTiles

	return Bounds{
		MinX: full.MinX + float64(col)*tileWidth,
		MaxX: full.MinX + float64(col+1)*tileWidth,
		MinY: full.MaxY - float64(row+1)*tileHeight,
		MaxY: full.MaxY - float64(row)*tileHeight,
	}
}

// Cell identifies one grid position by column and row
type Cell struct {
	Col int
	Row int
}

// String returns a string representation of the cell
func (c Cell) String() string {
	return fmt.Sprintf("%d/%d", c.Col, c.Row)
}

// Neighborhood is a square working window of Size by Size cells centered on
// (CenterCol, CenterRow). The download and preview pipelines only ever
// materialize this window, not the full 2^zoom grid.
type Neighborhood struct {
	Size      int
	CenterCol int
	CenterRow int
}

// NewNeighborhood creates a centered neighborhood of the given odd size.
// The center cell defaults to (size/2, size/2) so a 3x3 window covers
// columns and rows 0 through 2.
func NewNeighborhood(size int) Neighborhood {
	return Neighborhood{
		Size:      size,
		CenterCol: size / 2,
		CenterRow: size / 2,
	}
}

// Count returns the number of cells in the window
func (n Neighborhood) Count() int {
	return n.Size * n.Size
}

// Cell maps a linear index in [0, Count()) to its grid cell. The column
// offset varies slowly and the row offset quickly, matching the ledger's
// resume-index arithmetic: index = colOffset*Size + rowOffset.
func (n Neighborhood) Cell(i int) Cell {
	half := n.Size / 2
	return Cell{
		Col: n.CenterCol + (i/n.Size - half),
		Row: n.CenterRow + (i%n.Size - half),
	}
}

// Index is the inverse of Cell
func (n Neighborhood) Index(c Cell) int {
	half := n.Size / 2
	return (c.Col-n.CenterCol+half)*n.Size + (c.Row - n.CenterRow + half)
}
