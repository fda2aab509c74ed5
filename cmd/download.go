// cmd/download.go - Resumable tile download command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pawelpiwowarski/wms-scraper/internal/config"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
	"github.com/pawelpiwowarski/wms-scraper/internal/pipeline"
	"github.com/pawelpiwowarski/wms-scraper/internal/wms"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a tile neighborhood and record progress in a CSV ledger",
	Long: `Download fetches a square neighborhood of tiles from the configured WMS
layer, one tile per sub-bounding-box of the layer extent, and appends a row
to a CSV ledger after each tile is safely on disk.

The ledger doubles as the resume checkpoint: rerunning the same command
skips every tile already recorded and fetches only the missing ones, so an
interrupted or partially failed run converges on a complete dataset. A tile
whose fetch fails is skipped with a warning and picked up by the next run.

Examples:
  # Full-extent 3x3 neighborhood at zoom 5, PNG tiles
  wms-scraper download --endpoint "https://example.com/wms" --layer luna_global

  # Explicit extent and a denser grid
  wms-scraper download --endpoint "https://example.com/wms" --layer luna_global \
    --bbox "-180,-85.0511,180,85.0511" --zoom 8 --grid-size 5

  # JPEG tiles for an Earth layer
  wms-scraper download --endpoint "https://example.com/wms" --layer earth_osm \
    --format image/jpeg --radius-km 6371`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addTileFlags(downloadCmd)
	downloadCmd.Flags().String("output-dir", "./datasets", "root directory for downloaded datasets")
}

// addTileFlags registers the parameter flags shared by download and preview
func addTileFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("layer", "l", "", "WMS layer name (required)")
	cmd.Flags().String("bbox", "", "extent to partition: 'minx,miny,maxx,maxy' (default: layer extent)")
	cmd.Flags().String("crs", "EPSG:4326", "coordinate reference system")
	cmd.Flags().StringP("format", "f", "image/png", "tile image MIME type")
	cmd.Flags().IntP("zoom", "z", 5, "subdivision level: the extent splits into 2^zoom per axis")
	cmd.Flags().Int("width", 512, "tile image width in pixels")
	cmd.Flags().Int("height", 512, "tile image height in pixels")
	cmd.Flags().Float64("radius-km", 1737.4, "sphere radius for tile area computation")
	cmd.Flags().Int("grid-size", 3, "neighborhood size (odd): grid-size x grid-size tiles")
}

// applyTileFlags folds explicitly set command flags over the loaded
// configuration, so config file values survive unless overridden.
func applyTileFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("layer") {
		cfg.Download.Layer, _ = flags.GetString("layer")
	}
	if flags.Changed("bbox") {
		cfg.Download.Bounds, _ = flags.GetString("bbox")
	}
	if flags.Changed("crs") {
		cfg.Download.CRS, _ = flags.GetString("crs")
	}
	if flags.Changed("format") {
		cfg.Download.Format, _ = flags.GetString("format")
	}
	if flags.Changed("zoom") {
		cfg.Download.Zoom, _ = flags.GetInt("zoom")
	}
	if flags.Changed("width") {
		cfg.Download.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		cfg.Download.Height, _ = flags.GetInt("height")
	}
	if flags.Changed("radius-km") {
		cfg.Download.RadiusKm, _ = flags.GetFloat64("radius-km")
	}
	if flags.Changed("grid-size") {
		cfg.Download.GridSize, _ = flags.GetInt("grid-size")
	}
}

// connectAndResolve validates the service connection and resolves the run
// extent: an explicit bbox wins, then the layer's advertised extent, then
// the default lat/lon extent.
func connectAndResolve(ctx context.Context, client *wms.Client, cfg *config.Config) (grid.Bounds, error) {
	caps, err := client.GetCapabilities(ctx)
	if err != nil {
		return grid.Bounds{}, err
	}

	layer, ok := caps.FindLayer(cfg.Download.Layer)
	if !ok {
		return grid.Bounds{}, fmt.Errorf("layer %q not advertised by %s (available: %s)",
			cfg.Download.Layer, client.Endpoint(), strings.Join(caps.LayerNames(), ", "))
	}

	if cfg.Download.Bounds != "" {
		return grid.ParseBounds(cfg.Download.Bounds)
	}
	return layer.BoundsOrDefault(), nil
}

// buildParams assembles the pipeline parameter bundle from configuration
func buildParams(cfg *config.Config, bounds grid.Bounds) *pipeline.Params {
	return &pipeline.Params{
		Layer:      cfg.Download.Layer,
		CRS:        cfg.Download.CRS,
		Format:     cfg.Download.Format,
		Bounds:     bounds,
		Width:      cfg.Download.Width,
		Height:     cfg.Download.Height,
		Zoom:       cfg.Download.Zoom,
		RadiusKm:   cfg.Download.RadiusKm,
		GridSize:   cfg.Download.GridSize,
		OutputDir:  cfg.Download.OutputDir,
		PreviewDir: cfg.Download.PreviewDir,
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyTileFlags(cmd, cfg)
	if outputDir, _ := cmd.Flags().GetString("output-dir"); cmd.Flags().Changed("output-dir") {
		cfg.Download.OutputDir = outputDir
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
		fmt.Fprintf(os.Stderr, "Downloading layer %s over %s at zoom %d into %s\n",
			params.Layer, params.Bounds, params.Zoom, params.DatasetDir())
	}

	downloader := pipeline.NewDownloader(client, os.Stderr, cfg.Logging)
	summary, err := downloader.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Download complete: %s\n", summary)
	fmt.Fprintf(os.Stderr, "Ledger: %s\n", params.LedgerPath())
	return nil
}
