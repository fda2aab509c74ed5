// internal/ledger/ledger.go - Append-only CSV progress ledger
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
)

// ErrInvalidLedger reports an existing ledger file whose last row cannot be
// parsed. The run refuses to guess a resume point; no auto-repair.
var ErrInvalidLedger = internal.NewError(internal.ErrorCodeLedger,
	"ledger file is corrupt or truncated", nil)

// The on-disk column layout. This is the single mapping between field names
// and positional indices; the header row and every reader below derive from
// it so they cannot drift apart.
const (
	fieldImagePath = iota
	fieldLowerLeftLat
	fieldLowerLeftLon
	fieldUpperLeftLat
	fieldUpperLeftLon
	fieldUpperRightLat
	fieldUpperRightLon
	fieldLowerRightLat
	fieldLowerRightLon
	fieldZoom
	fieldRow
	fieldCol
	fieldArea

	numFields
)

var header = [numFields]string{
	fieldImagePath:     "IMG_PATH",
	fieldLowerLeftLat:  "LL_LAT",
	fieldLowerLeftLon:  "LL_LON",
	fieldUpperLeftLat:  "UL_LAT",
	fieldUpperLeftLon:  "UL_LON",
	fieldUpperRightLat: "UR_LAT",
	fieldUpperRightLon: "UR_LON",
	fieldLowerRightLat: "LR_LAT",
	fieldLowerRightLon: "LR_LON",
	fieldZoom:          "ZOOM",
	fieldRow:           "ROW",
	fieldCol:           "COL",
	fieldArea:          "SQ_KM_AREA",
}

// Record is one completed tile. AreaKm2 is optional: nil means the area
// computation failed and is serialized as an empty field, structurally
// distinct from a zero area.
type Record struct {
	ImagePath     string
	LowerLeftLat  float64
	LowerLeftLon  float64
	UpperLeftLat  float64
	UpperLeftLon  float64
	UpperRightLat float64
	UpperRightLon float64
	LowerRightLat float64
	LowerRightLon float64
	Zoom          int
	Row           int
	Col           int
	AreaKm2       *float64
}

// NewRecord builds a Record for a tile at the given cell covering the given
// bounding box, with Y as latitude and X as longitude.
func NewRecord(imagePath string, b grid.Bounds, zoom int, cell grid.Cell, areaKm2 *float64) Record {
	return Record{
		ImagePath:     imagePath,
		LowerLeftLat:  b.MinY,
		LowerLeftLon:  b.MinX,
		UpperLeftLat:  b.MaxY,
		UpperLeftLon:  b.MinX,
		UpperRightLat: b.MaxY,
		UpperRightLon: b.MaxX,
		LowerRightLat: b.MinY,
		LowerRightLon: b.MaxX,
		Zoom:          zoom,
		Row:           cell.Row,
		Col:           cell.Col,
		AreaKm2:       areaKm2,
	}
}

// fields serializes the record in header order
func (r Record) fields() []string {
	row := make([]string, numFields)
	row[fieldImagePath] = r.ImagePath
	row[fieldLowerLeftLat] = formatFloat(r.LowerLeftLat)
	row[fieldLowerLeftLon] = formatFloat(r.LowerLeftLon)
	row[fieldUpperLeftLat] = formatFloat(r.UpperLeftLat)
	row[fieldUpperLeftLon] = formatFloat(r.UpperLeftLon)
	row[fieldUpperRightLat] = formatFloat(r.UpperRightLat)
	row[fieldUpperRightLon] = formatFloat(r.UpperRightLon)
	row[fieldLowerRightLat] = formatFloat(r.LowerRightLat)
	row[fieldLowerRightLon] = formatFloat(r.LowerRightLon)
	row[fieldZoom] = strconv.Itoa(r.Zoom)
	row[fieldRow] = strconv.Itoa(r.Row)
	row[fieldCol] = strconv.Itoa(r.Col)
	if r.AreaKm2 != nil {
		row[fieldArea] = formatFloat(*r.AreaKm2)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EnsureHeader creates the ledger file with its header row if, and only if,
// the file does not exist yet. An existing file is never rewritten.
func EnsureHeader(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header[:]); err != nil {
		f.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush ledger header: %w", err)
	}
	return f.Close()
}

// LastPosition returns the (col, row) stored in the ledger's last data row,
// or (0, 0) when the file is missing or holds only the header. The column
// lives at positional index 11 and the row at index 10; a last row with
// fewer fields is an InvalidLedger failure.
func LastPosition(path string) (col, row int, err error) {
	rows, err := readRows(path)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) <= 1 {
		return 0, 0, nil
	}

	last := rows[len(rows)-1]
	if len(last) < numFields {
		return 0, 0, fmt.Errorf("last row has %d fields, want %d: %w", len(last), numFields, ErrInvalidLedger)
	}

	col, err = strconv.Atoi(last[fieldCol])
	if err != nil {
		return 0, 0, fmt.Errorf("last row column field %q: %w", last[fieldCol], ErrInvalidLedger)
	}
	row, err = strconv.Atoi(last[fieldRow])
	if err != nil {
		return 0, 0, fmt.Errorf("last row row field %q: %w", last[fieldRow], ErrInvalidLedger)
	}
	return col, row, nil
}

// Completed returns the set of all (col, row) cells already recorded in the
// ledger. An absent or header-only ledger yields an empty set.
func Completed(path string) (map[grid.Cell]bool, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	done := make(map[grid.Cell]bool)
	for i, r := range rows {
		if i == 0 {
			continue // header
		}
		if len(r) < numFields {
			return nil, fmt.Errorf("row %d has %d fields, want %d: %w", i, len(r), numFields, ErrInvalidLedger)
		}
		col, err := strconv.Atoi(r[fieldCol])
		if err != nil {
			return nil, fmt.Errorf("row %d column field %q: %w", i, r[fieldCol], ErrInvalidLedger)
		}
		row, err := strconv.Atoi(r[fieldRow])
		if err != nil {
			return nil, fmt.Errorf("row %d row field %q: %w", i, r[fieldRow], ErrInvalidLedger)
		}
		done[grid.Cell{Col: col, Row: row}] = true
	}
	return done, nil
}

// Append writes one record to the end of the ledger and does not return
// until the row is flushed and synced to disk, so a tile is only ever
// reported done once its resume state is durable. Single writer per run;
// rows are never rewritten or deleted.
func Append(path string, rec Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger for append: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rec.fields()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush ledger row: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return f.Close()
}

// readRows loads the full ledger; a missing file is not an error
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length is validated by the callers
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", ErrInvalidLedger)
	}
	return rows, nil
}
