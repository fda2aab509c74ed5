// cmd/preview.go - Stateless mosaic preview command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pawelpiwowarski/wms-scraper/internal/config"
	"github.com/pawelpiwowarski/wms-scraper/internal/pipeline"
	"github.com/pawelpiwowarski/wms-scraper/internal/wms"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Fetch the tile neighborhood once and write a GeoJSON mosaic index",
	Long: `Preview fetches every tile of the neighborhood without touching any
ledger, saves each tile as PNG under the preview directory and writes a
GeoJSON index describing where each tile sits. Failed tiles are simply
omitted, so the preview is a quick look at what a download run would
produce, not a checkpointed dataset.

Examples:
  # Preview the default 3x3 neighborhood
  wms-scraper preview --endpoint "https://example.com/wms" --layer luna_global

  # Preview a denser grid at higher zoom
  wms-scraper preview --endpoint "https://example.com/wms" --layer luna_global \
    --zoom 8 --grid-size 5`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addTileFlags(previewCmd)
	previewCmd.Flags().String("preview-dir", "./preview", "root directory for preview tiles")
}

func runPreview(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyTileFlags(cmd, cfg)
	if previewDir, _ := cmd.Flags().GetString("preview-dir"); cmd.Flags().Changed("preview-dir") {
		cfg.Download.PreviewDir = previewDir
	}

	if cfg.Download.Layer == "" {
		return fmt.Errorf("a layer must be specified with --layer")
	}

	client, err := wms.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create WMS client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bounds, err := connectAndResolve(ctx, client, cfg)
	if err != nil {
		return err
	}

	params := buildParams(cfg, bounds)
	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Previewing layer %s over %s at zoom %d\n",
			params.Layer, params.Bounds, params.Zoom)
	}

	downloader := pipeline.NewDownloader(client, os.Stderr, cfg.Logging)
	mosaic, err := downloader.Preview(ctx, params)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	indexPath := filepath.Join(params.PreviewDatasetDir(), "mosaic.geojson")
	data, err := json.MarshalIndent(mosaic.FeatureCollection(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mosaic index: %w", err)
	}
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write mosaic index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Preview complete: %d of %d tiles fetched\n",
		len(mosaic.Tiles), params.GridSize*params.GridSize)
	fmt.Fprintf(os.Stderr, "Mosaic index: %s\n", indexPath)
	return nil
}
