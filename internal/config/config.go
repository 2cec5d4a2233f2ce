package config

import (
	"os"
	"strings"

	"policypilot/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Inputs   InputConfig
	Output   OutputConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// InputConfig names the three CSV/XLSX sources of the pipeline.
type InputConfig struct {
	CrosswalkFile  string // village/pixel crosswalk, one row per pixel
	ThresholdFile  string // yield-threshold metadata, one row per pixel
	TimeseriesFile string // wide yield time series, one column per pixel
}

// OutputConfig holds the report destination settings.
type OutputConfig struct {
	Dir          string
	WorkbookName string
}

// DatabaseConfig holds the optional Postgres run-store settings. An empty
// URL disables persistence.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the report viewer settings.
type ServerConfig struct {
	Port      string
	ReportDir string
}

// Load reads configuration from environment variables and validates it.
// Missing required inputs are reported together in one error.
func Load() (*Config, error) {
	config := &Config{
		Inputs: InputConfig{
			CrosswalkFile:  os.Getenv("CROSSWALK_FILE"),
			ThresholdFile:  os.Getenv("THRESHOLD_FILE"),
			TimeseriesFile: os.Getenv("TIMESERIES_FILE"),
		},
		Output: OutputConfig{
			Dir:          getEnvOrDefault("OUTPUT_DIR", "output"),
			WorkbookName: getEnvOrDefault("WORKBOOK_NAME", "policy_pilot_report.xlsx"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:      getEnvOrDefault("PORT", "8080"),
			ReportDir: getEnvOrDefault("REPORT_DIR", "output"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadViewer reads only the settings the report viewer needs.
func LoadViewer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:      getEnvOrDefault("PORT", "8080"),
		ReportDir: getEnvOrDefault("REPORT_DIR", "output"),
	}
	if cfg.ReportDir == "" {
		return nil, errors.ConfigInvalid("REPORT_DIR is required")
	}
	return cfg, nil
}

func validateConfig(config *Config) error {
	var missing []string
	if config.Inputs.CrosswalkFile == "" {
		missing = append(missing, "CROSSWALK_FILE")
	}
	if config.Inputs.ThresholdFile == "" {
		missing = append(missing, "THRESHOLD_FILE")
	}
	if config.Inputs.TimeseriesFile == "" {
		missing = append(missing, "TIMESERIES_FILE")
	}
	if len(missing) > 0 {
		return errors.ConfigInvalid("required environment variables not set: " + strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
