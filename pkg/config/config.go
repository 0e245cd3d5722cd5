// Package config provides configuration management for txledger.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Output  OutputConfig
	History HistoryConfig
	Debug   bool
}

// OutputConfig controls how account summaries are written.
type OutputConfig struct {
	Format string
	Path   string
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	Enabled bool
	DataDir string
	DBPath  string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	historyEnabled, err := parseBoolEnv("TXLEDGER_HISTORY", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Output: OutputConfig{
			Format: getEnvOrDefault("TXLEDGER_OUTPUT_FORMAT", "csv"),
			Path:   os.Getenv("TXLEDGER_OUTPUT"),
		},
		History: HistoryConfig{
			Enabled: historyEnabled,
			DataDir: getEnvOrDefault("TXLEDGER_DATA_DIR", ".txledger"),
			DBPath:  os.Getenv("TXLEDGER_DB_PATH"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that every required field is set.
// Each path names a section and a field, e.g. []string{"history", "dataDir"}.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "output":
			switch path[1] {
			case "format":
				value = c.Output.Format
			case "path":
				value = c.Output.Path
			}
		case "history":
			switch path[1] {
			case "dataDir":
				value = c.History.DataDir
			case "dbPath":
				value = c.History.DBPath
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a bool from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}

	return parsed, nil
}
