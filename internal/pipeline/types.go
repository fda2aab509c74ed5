// internal/pipeline/types.go - Pipeline parameters and run reporting
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
	"github.com/pawelpiwowarski/wms-scraper/internal/imaging"
)

// Params is the immutable description of one scraping run. Every knob a run
// needs travels in here; the pipeline keeps no state of its own between
// runs, the ledger on disk is the only carry-over.
type Params struct {
	Layer      string
	CRS        string
	Format     string
	Bounds     grid.Bounds
	Width      int
	Height     int
	Zoom       int
	RadiusKm   float64
	GridSize   int
	OutputDir  string
	PreviewDir string
}

// Validate checks the parameter bundle before any network or disk I/O
func (p *Params) Validate() error {
	if p.Layer == "" {
		return internal.NewError(internal.ErrorCodeValidation, "layer is required", nil)
	}
	if p.CRS == "" {
		return internal.NewError(internal.ErrorCodeValidation, "crs is required", nil)
	}
	if !strings.HasPrefix(p.Format, "image/") {
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("format must be an image MIME type, got %q", p.Format), nil)
	}
	if p.Bounds.MinX >= p.Bounds.MaxX || p.Bounds.MinY >= p.Bounds.MaxY {
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("bounds %s are degenerate", p.Bounds), nil)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return internal.NewError(internal.ErrorCodeValidation, "width and height must be positive", nil)
	}
	if p.Zoom < 0 {
		return internal.NewError(internal.ErrorCodeValidation, "zoom must be non-negative", nil)
	}
	if p.RadiusKm <= 0 {
		return internal.NewError(internal.ErrorCodeValidation, "radius must be positive", nil)
	}
	if p.GridSize <= 0 || p.GridSize%2 == 0 {
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("grid size must be a positive odd number, got %d", p.GridSize), nil)
	}
	return nil
}

// DatasetDir is the per-run output directory. Its name encodes the layer,
// zoom, format and projection so distinct runs never share a ledger.
func (p *Params) DatasetDir() string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("%s_zoom_%d_format_%s_projection_%s",
		p.Layer, p.Zoom, imaging.Extension(p.Format), p.CRS))
}

// LedgerPath is the progress ledger location inside the dataset directory
func (p *Params) LedgerPath() string {
	return filepath.Join(p.DatasetDir(), fmt.Sprintf("%s_zoom_%d_tiles_info.csv", p.Layer, p.Zoom))
}

// PreviewDatasetDir is the per-run directory for preview tiles
func (p *Params) PreviewDatasetDir() string {
	return filepath.Join(p.PreviewDir, fmt.Sprintf("%s_zoom_%d_format_%s_projection_%s",
		p.Layer, p.Zoom, imaging.Extension(p.Format), p.CRS))
}

// TileFilename names one tile image by its grid cell
func (p *Params) TileFilename(cell grid.Cell) string {
	return fmt.Sprintf("tile_%d_%d.%s", cell.Col, cell.Row, imaging.Extension(p.Format))
}

// RunSummary reports what one download run did
type RunSummary struct {
	Total   int
	Skipped int
	Fetched int
	Failed  int
}

func (s *RunSummary) String() string {
	return fmt.Sprintf("%d tiles: %d fetched, %d already present, %d failed",
		s.Total, s.Fetched, s.Skipped, s.Failed)
}
