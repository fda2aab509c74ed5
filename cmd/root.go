// cmd/root.go - Root command implementation
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wms-scraper",
	Short: "Download raster tile datasets from WMS services",
	Long: `wms-scraper partitions a bounding box into a tile grid, fetches each tile
from a WMS endpoint by bounding box and records every completed tile in an
append-only CSV ledger, so an interrupted run can be rerun and picks up
exactly the tiles that are still missing.

Alongside each tile the ledger stores its corner coordinates and its surface
area on a sphere of configurable radius, which makes the tool usable for
planetary imagery as well; the default radius is the lunar one.

Examples:
  # List the layers a service advertises
  wms-scraper layers --endpoint "https://example.com/wms"

  # Inspect one layer
  wms-scraper layers --endpoint "https://example.com/wms" --layer luna_global

  # Download the default 3x3 neighborhood at zoom 5
  wms-scraper download --endpoint "https://example.com/wms" --layer luna_global

  # Resume after an interruption: same command, already fetched tiles are skipped
  wms-scraper download --endpoint "https://example.com/wms" --layer luna_global

  # Quick look before committing to a download
  wms-scraper preview --endpoint "https://example.com/wms" --layer luna_global`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wms-scraper.yaml)")

	// Service flags
	rootCmd.PersistentFlags().String("endpoint", "", "WMS service endpoint URL")
	rootCmd.PersistentFlags().String("wms-version", "1.1.1", "WMS protocol version")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().Int("retries", 0, "per-tile retry attempts")

	// Logging flags
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().Bool("progress", true, "show per-tile progress")

	// Bind flags to viper
	viper.BindPFlag("service.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("service.version", rootCmd.PersistentFlags().Lookup("wms-version"))
	viper.BindPFlag("service.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("service.max_retries", rootCmd.PersistentFlags().Lookup("retries"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("logging.progress", rootCmd.PersistentFlags().Lookup("progress"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".wms-scraper" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wms-scraper")
	}

	// Environment variables
	viper.SetEnvPrefix("WMS_SCRAPER")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("logging.verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
