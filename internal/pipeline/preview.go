// internal/pipeline/preview.go - Stateless mosaic preview assembler
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
	"github.com/pawelpiwowarski/wms-scraper/internal/imaging"
	"github.com/pawelpiwowarski/wms-scraper/internal/wms"
)

// previewConcurrency bounds the parallel fetches of a preview pass. The
// neighborhood is small, so a handful of workers is plenty.
const previewConcurrency = 4

// MosaicTile is one fetched preview tile anchored at its exact bounds
type MosaicTile struct {
	ImagePath string
	Bounds    grid.Bounds
	Cell      grid.Cell
}

// Mosaic describes the assembled preview: which tiles were fetched and
// where each sits. It is an index, not composited imagery.
type Mosaic struct {
	Layer string
	Zoom  int
	Tiles []MosaicTile
}

// FeatureCollection renders the mosaic as a GeoJSON index of tile
// footprints, one polygon feature per fetched tile.
func (m *Mosaic) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range m.Tiles {
		ring := orb.Ring{
			{t.Bounds.MinX, t.Bounds.MinY},
			{t.Bounds.MaxX, t.Bounds.MinY},
			{t.Bounds.MaxX, t.Bounds.MaxY},
			{t.Bounds.MinX, t.Bounds.MaxY},
			{t.Bounds.MinX, t.Bounds.MinY},
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["image"] = t.ImagePath
		f.Properties["layer"] = m.Layer
		f.Properties["zoom"] = m.Zoom
		f.Properties["col"] = t.Cell.Col
		f.Properties["row"] = t.Cell.Row
		fc.Append(f)
	}
	return fc
}

// Preview fetches every tile of the neighborhood, ignoring the ledger
// entirely, and saves each as a PNG under the preview directory. Failed
// tiles are logged and omitted from the result rather than failing the
// pass. Tiles in the returned mosaic are ordered by their linear index.
func (d *Downloader) Preview(ctx context.Context, params *Params) (*Mosaic, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	previewDir := params.PreviewDatasetDir()
	if err := os.MkdirAll(previewDir, 0755); err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to create preview directory %s", previewDir), err)
	}

	nb := grid.NewNeighborhood(params.GridSize)
	mosaic := &Mosaic{Layer: params.Layer, Zoom: params.Zoom}

	var (
		mutex sync.Mutex
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, previewConcurrency)

	for i := 0; i < nb.Count(); i++ {
		cell := nb.Cell(i)

		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			tile, err := d.previewTile(ctx, params, cell, previewDir)
			if err != nil {
				if ctx.Err() == nil {
					d.warnf("preview tile (%d, %d) omitted: %v\n", cell.Col, cell.Row, err)
				}
				return
			}

			mutex.Lock()
			mosaic.Tiles = append(mosaic.Tiles, *tile)
			mutex.Unlock()
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(mosaic.Tiles, func(i, j int) bool {
		return nb.Index(mosaic.Tiles[i].Cell) < nb.Index(mosaic.Tiles[j].Cell)
	})
	return mosaic, nil
}

// previewTile fetches one tile and saves it as PNG regardless of the
// requested wire format
func (d *Downloader) previewTile(ctx context.Context, params *Params, cell grid.Cell, previewDir string) (*MosaicTile, error) {
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
		return nil, err
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	imagePath := filepath.Join(previewDir, fmt.Sprintf("tile_%d_%d.png", cell.Col, cell.Row))
	f, err := os.Create(imagePath)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to create preview image %s", imagePath), err)
	}
	if err := imaging.Encode(f, img, "image/png"); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem,
			fmt.Sprintf("failed to write preview image %s", imagePath), err)
	}

	return &MosaicTile{ImagePath: imagePath, Bounds: b, Cell: cell}, nil
}
