// cmd/layers.go - Service layer listing command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pawelpiwowarski/wms-scraper/internal/config"
	"github.com/pawelpiwowarski/wms-scraper/internal/wms"
)

// layersCmd represents the layers command
var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "List the layers a WMS service advertises",
	Long: `Layers queries the service's capabilities document and lists the named
layers it advertises. With --layer it prints the details of one layer:
title, abstract, supported reference systems, advertised extent and the
image formats the service can render.

Examples:
  # All layer names
  wms-scraper layers --endpoint "https://example.com/wms"

  # One layer in detail
  wms-scraper layers --endpoint "https://example.com/wms" --layer luna_global`,
	RunE: runLayers,
}

func init() {
	rootCmd.AddCommand(layersCmd)
	layersCmd.Flags().StringP("layer", "l", "", "show details for this layer only")
}

func runLayers(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client, err := wms.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create WMS client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	caps, err := client.GetCapabilities(ctx)
	if err != nil {
		return err
	}

	layerName, _ := cmd.Flags().GetString("layer")
	if layerName == "" {
		for _, name := range caps.LayerNames() {
			fmt.Println(name)
		}
		return nil
	}

	layer, ok := caps.FindLayer(layerName)
	if !ok {
		return fmt.Errorf("layer %q not advertised by %s (available: %s)",
			layerName, client.Endpoint(), strings.Join(caps.LayerNames(), ", "))
	}

	fmt.Printf("Name:     %s\n", layer.Name)
	if layer.Title != "" {
		fmt.Printf("Title:    %s\n", layer.Title)
	}
	if layer.Abstract != "" {
		fmt.Printf("Abstract: %s\n", layer.Abstract)
	}
	if len(layer.CRS) > 0 {
		fmt.Printf("CRS:      %s\n", strings.Join(layer.CRS, ", "))
	}
	fmt.Printf("Extent:   %s\n", layer.BoundsOrDefault())
	if len(caps.MapFormats) > 0 {
		fmt.Printf("Formats:  %s\n", strings.Join(caps.MapFormats, ", "))
	}
	return nil
}
