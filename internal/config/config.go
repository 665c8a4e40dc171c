package config

import (
	"os"
	"strconv"
	"strings"

	"refugia/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Report   ReportConfig
	Data     DataConfig
}

// AnalysisConfig holds the statistical engine settings
type AnalysisConfig struct {
	Neighbors         int   // k for the k-nearest-neighbor weight matrix
	Seed              int64 // base seed for every random stream
	PermutationRounds int   // 0 disables the permutation referee
	Workers           int   // bounded per-feature fan-out
}

// ReportConfig holds output settings
type ReportConfig struct {
	Format    string // text, markdown, html or xlsx
	OutputDir string
}

// DataConfig holds ingestion settings
type DataConfig struct {
	// Files are the default WALS XML export paths, read from the
	// comma-separated REFUGIA_FILES variable. Order decides first-seen-wins
	// deduplication. CLI arguments override them.
	Files []string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: AnalysisConfig{
			Neighbors:         getEnvIntOrDefault("REFUGIA_NEIGHBORS", 5),
			Seed:              int64(getEnvIntOrDefault("REFUGIA_SEED", 42)),
			PermutationRounds: getEnvIntOrDefault("REFUGIA_PERMUTATIONS", 0),
			Workers:           getEnvIntOrDefault("REFUGIA_WORKERS", 4),
		},
		Report: ReportConfig{
			Format:    getEnvOrDefault("REFUGIA_FORMAT", "text"),
			OutputDir: getEnvOrDefault("REFUGIA_OUT", ""),
		},
		Data: DataConfig{
			Files: getEnvListOrDefault("REFUGIA_FILES", nil),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Neighbors < 1 {
		return errors.ConfigInvalid("REFUGIA_NEIGHBORS must be at least 1")
	}
	if config.Analysis.PermutationRounds < 0 {
		return errors.ConfigInvalid("REFUGIA_PERMUTATIONS must not be negative")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("REFUGIA_WORKERS must be at least 1")
	}
	switch config.Report.Format {
	case "text", "markdown", "html", "xlsx":
	default:
		return errors.ConfigInvalid("REFUGIA_FORMAT must be one of text, markdown, html, xlsx")
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

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
