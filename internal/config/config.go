// internal/config/config.go - Configuration management
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Download DownloadConfig `mapstructure:"download"`
	Network  NetworkConfig  `mapstructure:"network"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServiceConfig contains the WMS endpoint configuration
type ServiceConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Version    string        `mapstructure:"version"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// DownloadConfig contains tile grid and output configuration
type DownloadConfig struct {
	Layer      string  `mapstructure:"layer"`
	CRS        string  `mapstructure:"crs"`
	Format     string  `mapstructure:"format"`
	Zoom       int     `mapstructure:"zoom"`
	Width      int     `mapstructure:"width"`
	Height     int     `mapstructure:"height"`
	Bounds     string  `mapstructure:"bounds"`
	RadiusKm   float64 `mapstructure:"radius_km"`
	GridSize   int     `mapstructure:"grid_size"`
	OutputDir  string  `mapstructure:"output_dir"`
	PreviewDir string  `mapstructure:"preview_dir"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	ProxyURL         string        `mapstructure:"proxy_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	KeepAlive        time.Duration `mapstructure:"keep_alive"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	IdleConnTimeout  time.Duration `mapstructure:"idle_conn_timeout"`
	DisableKeepAlive bool          `mapstructure:"disable_keep_alive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Verbose  bool `mapstructure:"verbose"`
	Progress bool `mapstructure:"progress"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Set default values
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults configures default values for all configuration options
func setDefaults() {
	// Service defaults
	viper.SetDefault("service.version", "1.1.1")
	viper.SetDefault("service.timeout", 30*time.Second)
	viper.SetDefault("service.max_retries", 0)

	// Download defaults
	viper.SetDefault("download.crs", "EPSG:4326")
	viper.SetDefault("download.format", "image/png")
	viper.SetDefault("download.zoom", 5)
	viper.SetDefault("download.width", 512)
	viper.SetDefault("download.height", 512)
	viper.SetDefault("download.radius_km", 1737.4)
	viper.SetDefault("download.grid_size", 3)
	viper.SetDefault("download.output_dir", "./datasets")
	viper.SetDefault("download.preview_dir", "./preview")

	// Network defaults
	viper.SetDefault("network.user_agent", "wms-scraper/1.0")
	viper.SetDefault("network.keep_alive", 30*time.Second)
	viper.SetDefault("network.max_idle_conns", 100)
	viper.SetDefault("network.idle_conn_timeout", 90*time.Second)
	viper.SetDefault("network.disable_keep_alive", false)

	// Logging defaults
	viper.SetDefault("logging.verbose", false)
	viper.SetDefault("logging.progress", true)
}
