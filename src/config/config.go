package config

import (
	"fmt"
	"os"

	"monitor-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in the timing knobs most deployments never touch.
func (c *Config) applyDefaults() {
	if c.API.RequestTimeout == 0 {
		c.API.RequestTimeout = 15
	}
	if c.API.TokenWaitSeconds == 0 {
		c.API.TokenWaitSeconds = 5
	}
	if c.Realtime.ReconnectBaseSeconds == 0 {
		c.Realtime.ReconnectBaseSeconds = 1
	}
	if c.Realtime.ReconnectMaxSeconds == 0 {
		c.Realtime.ReconnectMaxSeconds = 15
	}
	if c.Realtime.KeepAliveSeconds == 0 {
		c.Realtime.KeepAliveSeconds = 25
	}
	if c.Server.SimulateIntervalSecond == 0 {
		c.Server.SimulateIntervalSecond = 5
	}
	if c.Server.RecentReadingsCapacity == 0 {
		c.Server.RecentReadingsCapacity = 100
	}
	if c.Views.DefaultTimeRange == "" {
		c.Views.DefaultTimeRange = "1h"
	}
	if c.Views.MaxChartPoints == 0 {
		c.Views.MaxChartPoints = 500
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate API configuration
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url cannot be empty")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Validate Realtime configuration
	if c.Realtime.ReconnectBaseSeconds <= 0 {
		return fmt.Errorf("reconnect base delay must be greater than 0")
	}
	if c.Realtime.ReconnectMaxSeconds < c.Realtime.ReconnectBaseSeconds {
		return fmt.Errorf("reconnect max delay cannot be below the base delay")
	}
	if c.Realtime.KeepAliveSeconds <= 0 {
		return fmt.Errorf("keepalive interval must be greater than 0")
	}

	// Validate Server configuration (dev server only, optional block)
	if c.Server.Port != 0 && (c.Server.Port <= 1024 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Server.Port)
	}

	// Validate Storage configuration (used by the dev server)
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Views configuration
	if _, err := models.WindowDuration(c.Views.DefaultTimeRange); err != nil {
		return fmt.Errorf("invalid default time range: %w", err)
	}

	return nil
}
