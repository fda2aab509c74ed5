// internal/pipeline/preview_test.go - Tests for the mosaic preview assembler
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
)

func TestPreviewFetchesEveryTile(t *testing.T) {
	params := testParams(t)
	fetcher := newStubFetcher(t, params)

	mosaic, err := newTestDownloader(fetcher).Preview(context.Background(), params)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	if len(mosaic.Tiles) != 9 {
		t.Fatalf("mosaic has %d tiles, want 9", len(mosaic.Tiles))
	}
	// Ordered by linear index: column varies slowly.
	wantFirst := []grid.Cell{{Col: 0, Row: 0}, {Col: 0, Row: 1}, {Col: 0, Row: 2}, {Col: 1, Row: 0}}
	for i, want := range wantFirst {
		if mosaic.Tiles[i].Cell != want {
			t.Errorf("Tiles[%d].Cell = %v, want %v", i, mosaic.Tiles[i].Cell, want)
		}
	}

	for _, tile := range mosaic.Tiles {
		if _, err := os.Stat(tile.ImagePath); err != nil {
			t.Errorf("missing preview image %s: %v", tile.ImagePath, err)
		}
		if filepath.Ext(tile.ImagePath) != ".png" {
			t.Errorf("preview image %s is not a png", tile.ImagePath)
		}
	}
}

func TestPreviewIgnoresLedger(t *testing.T) {
	params := testParams(t)

	// A completed download must not stop the preview from refetching.
	if _, err := newTestDownloader(newStubFetcher(t, params)).Run(context.Background(), params); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	before, err := os.ReadFile(params.LedgerPath())
	if err != nil {
		t.Fatal(err)
	}

	fetcher := newStubFetcher(t, params)
	mosaic, err := newTestDownloader(fetcher).Preview(context.Background(), params)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(fetcher.cellCalls()) != 9 || len(mosaic.Tiles) != 9 {
		t.Errorf("Preview() fetched %d tiles, want all 9", len(fetcher.cellCalls()))
	}

	after, err := os.ReadFile(params.LedgerPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Preview() modified the ledger")
	}
}

func TestPreviewOmitsFailedTiles(t *testing.T) {
	params := testParams(t)
	fetcher := newStubFetcher(t, params)
	failing := grid.Cell{Col: 2, Row: 0}
	fetcher.fail[failing] = true

	mosaic, err := newTestDownloader(fetcher).Preview(context.Background(), params)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(mosaic.Tiles) != 8 {
		t.Fatalf("mosaic has %d tiles, want 8", len(mosaic.Tiles))
	}
	for _, tile := range mosaic.Tiles {
		if tile.Cell == failing {
			t.Errorf("failed cell %v present in mosaic", failing)
		}
	}
}

func TestMosaicFeatureCollection(t *testing.T) {
	params := testParams(t)
	fetcher := newStubFetcher(t, params)

	mosaic, err := newTestDownloader(fetcher).Preview(context.Background(), params)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	fc := mosaic.FeatureCollection()
	if len(fc.Features) != 9 {
		t.Fatalf("feature collection has %d features, want 9", len(fc.Features))
	}

	f := fc.Features[0]
	poly, ok := f.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("feature geometry is %T, want orb.Polygon", f.Geometry)
	}
	wantBounds := grid.TileBounds(0, 0, params.Zoom, params.Bounds)
	if got := poly.Bound(); got != wantBounds.Bound() {
		t.Errorf("footprint bound = %v, want %v", got, wantBounds.Bound())
	}

	if f.Properties["layer"] != params.Layer || f.Properties["zoom"] != params.Zoom {
		t.Errorf("properties = %v, want layer/zoom of the run", f.Properties)
	}
	if f.Properties["col"] != 0 || f.Properties["row"] != 0 {
		t.Errorf("first feature cell properties = %v/%v, want 0/0",
			f.Properties["col"], f.Properties["row"])
	}
	if f.Properties["image"] == "" {
		t.Error("feature missing image path property")
	}
}
