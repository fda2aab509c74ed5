// internal/pipeline/download.go - Resumable tile download pipeline
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/config"
	"github.com/pawelpiwowarski/wms-scraper/internal/geodesy"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
	"github.com/pawelpiwowarski/wms-scraper/internal/imaging"
	"github.com/pawelpiwowarski/wms-scraper/internal/ledger"
	"github.com/pawelpiwowarski/wms-scraper/internal/wms"
)

// Downloader drives the fetch-and-record loop over one tile neighborhood.
// It is constructed per run around a Fetcher; all cross-run state lives in
// the ledger file.
type Downloader struct {
	fetcher wms.Fetcher
	out     io.Writer
	logging config.LoggingConfig
}

// NewDownloader creates a downloader writing progress output to out
func NewDownloader(fetcher wms.Fetcher, out io.Writer, logging config.LoggingConfig) *Downloader {
	return &Downloader{
		fetcher: fetcher,
		out:     out,
		logging: logging,
	}
}

// Run executes one download pass over the neighborhood described by params.
//
// Tiles already recorded in the ledger are skipped, so rerunning after an
// interruption or a partial failure fetches exactly the missing tiles. A
// tile whose fetch or decode fails is logged and left for the next run; the
// pass itself only aborts on invalid parameters, an unreadable ledger, or a
// failure to persist results. Cancellation is honored between tiles, never
// between writing an image and recording it.
func (d *Downloader) Run(ctx context.Context, params *Params) (*RunSummary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	datasetDir := params.DatasetDir()
	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to create output directory %s", datasetDir), err)
	}

	ledgerPath := params.LedgerPath()
	if err := ledger.EnsureHeader(ledgerPath); err != nil {
		return nil, err
	}

	// The resume survey happens exactly once, before any fetch.
	done, err := ledger.Completed(ledgerPath)
	if err != nil {
		return nil, err
	}
	lastCol, lastRow, err := ledger.LastPosition(ledgerPath)
	if err != nil {
		return nil, err
	}
	if len(done) > 0 {
		d.logf("resuming %s: %d tiles recorded, last at (%d, %d)\n",
			ledgerPath, len(done), lastCol, lastRow)
	}

	nb := grid.NewNeighborhood(params.GridSize)
	summary := &RunSummary{Total: nb.Count()}

	for i := 0; i < nb.Count(); i++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		cell := nb.Cell(i)
		if done[cell] {
			summary.Skipped++
			continue
		}

		if err := d.processTile(ctx, params, cell, datasetDir, ledgerPath); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			if internal.IsFatal(err) {
				return summary, err
			}
			d.warnf("tile (%d, %d) skipped: %v\n", cell.Col, cell.Row, err)
			summary.Failed++
			continue
		}

		summary.Fetched++
		d.progressf("tile (%d, %d) done [%d/%d]\n", cell.Col, cell.Row,
			summary.Skipped+summary.Fetched, summary.Total)
	}

	return summary, nil
}

// processTile fetches, persists and records one tile. Errors from the fetch
// and decode stages are retryable; errors writing the image or the ledger
// row are fatal to the run.
func (d *Downloader) processTile(ctx context.Context, params *Params, cell grid.Cell, datasetDir, ledgerPath string) error {
	b := grid.TileBounds(cell.Col, cell.Row, params.Zoom, params.Bounds)

	data, err := d.fetcher.GetMap(ctx, &wms.GetMapRequest{
		Layer:  params.Layer,
		CRS:    params.CRS,
		Bounds: b,
		Width:  params.Width,
		Height: params.Height,
		Format: params.Format,
	})
	if err != nil {
		return err
	}

	// Decode is validation only; the payload is persisted as served.
	if _, _, err := imaging.Decode(data); err != nil {
		return err
	}

	imagePath := filepath.Join(datasetDir, params.TileFilename(cell))
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to write tile image %s", imagePath), err)
	}

	// The area is best-effort metadata: a degenerate surface leaves the
	// field empty rather than failing the tile.
	var areaKm2 *float64
	if area, err := geodesy.Area(b, params.RadiusKm); err == nil {
		areaKm2 = &area
	} else {
		d.logf("tile (%d, %d): no area recorded: %v\n", cell.Col, cell.Row, err)
	}

	rec := ledger.NewRecord(imagePath, b, params.Zoom, cell, areaKm2)
	if err := ledger.Append(ledgerPath, rec); err != nil {
		// An unrecordable tile poisons the resume state for the whole run.
		return internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to record tile (%d, %d) in ledger", cell.Col, cell.Row), err)
	}
	return nil
}

func (d *Downloader) logf(format string, args ...interface{}) {
	if d.logging.Verbose {
		fmt.Fprintf(d.out, format, args...)
	}
}

func (d *Downloader) progressf(format string, args ...interface{}) {
	if d.logging.Progress {
		fmt.Fprintf(d.out, format, args...)
	}
}

func (d *Downloader) warnf(format string, args ...interface{}) {
	fmt.Fprintf(d.out, "warning: "+format, args...)
}
