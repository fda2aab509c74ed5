// internal/config/validation.go - Configuration validation
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate validates the configuration structure and values
func Validate(config *Config) error {
	if err := validateService(&config.Service); err != nil {
		return fmt.Errorf("service configuration invalid: %w", err)
	}

	if err := validateDownload(&config.Download); err != nil {
		return fmt.Errorf("download configuration invalid: %w", err)
	}

	if err := validateNetwork(&config.Network); err != nil {
		return fmt.Errorf("network configuration invalid: %w", err)
	}

	return nil
}

// validateService validates WMS endpoint configuration parameters
func validateService(config *ServiceConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http or https URL")
	}

	if config.Version == "" {
		return fmt.Errorf("version is required")
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}

	return nil
}

// validateDownload validates tile grid and output configuration parameters
func validateDownload(config *DownloadConfig) error {
	if config.CRS == "" {
		return fmt.Errorf("crs is required")
	}

	if !strings.HasPrefix(config.Format, "image/") {
		return fmt.Errorf("format must be an image MIME type, got %q", config.Format)
	}

	if config.Zoom < 0 {
		return fmt.Errorf("zoom must be non-negative")
	}

	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}

	if config.RadiusKm <= 0 {
		return fmt.Errorf("radius_km must be positive")
	}

	if config.GridSize <= 0 || config.GridSize%2 == 0 {
		return fmt.Errorf("grid_size must be a positive odd number, got %d", config.GridSize)
	}

	if config.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if config.PreviewDir == "" {
		return fmt.Errorf("preview_dir is required")
	}

	return nil
}

// validateNetwork validates network configuration parameters
func validateNetwork(config *NetworkConfig) error {
	if config.ProxyURL != "" {
		if _, err := url.Parse(config.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy_url: %w", err)
		}
	}

	if config.MaxIdleConns < 0 {
		return fmt.Errorf("max_idle_conns must be non-negative")
	}

	if config.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	if config.KeepAlive < 0 {
		return fmt.Errorf("keep_alive must be non-negative")
	}

	if config.IdleConnTimeout < 0 {
		return fmt.Errorf("idle_conn_timeout must be non-negative")
	}

	return nil
}
