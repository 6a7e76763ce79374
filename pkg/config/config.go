// Package config provides configuration management for club-billing.
// It loads configuration from environment variables and .env files, and
// club settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config represents the application configuration.
type Config struct {
	Store        StoreConfig
	HTTP         HTTPConfig
	SettingsFile string
	LedgerMap    string
	Debug        bool
}

// StoreConfig selects and locates the persistent store.
type StoreConfig struct {
	Driver    string
	DataDir   string
	DBPath    string
	LedgerDir string
	ExportDir string
	BackupDir string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string
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

	dataDir := getEnvOrDefault("CLUB_DATA_DIR", "./data")
	config := &Config{
		Store: StoreConfig{
			Driver:    strings.ToLower(getEnvOrDefault("CLUB_STORE_DRIVER", DriverSQLite)),
			DataDir:   dataDir,
			DBPath:    os.Getenv("CLUB_DB_PATH"),
			LedgerDir: os.Getenv("CLUB_LEDGER_DIR"),
			ExportDir: os.Getenv("CLUB_EXPORT_DIR"),
			BackupDir: os.Getenv("CLUB_BACKUP_DIR"),
		},
		HTTP: HTTPConfig{
			Addr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		},
		SettingsFile: os.Getenv("CLUB_SETTINGS_FILE"),
		LedgerMap:    os.Getenv("CLUB_LEDGER_MAPPING"),
		Debug:        os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that the required keys are set and that the store
// driver is known. Keys are dot paths such as "store.dataDir".
func (c *Config) Validate(required ...string) error {
	var missing []string
	for _, key := range required {
		if c.value(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unknown store driver %q (expected %s or %s)", c.Store.Driver, DriverSQLite, DriverBolt)
	}
	return nil
}

func (c *Config) value(key string) string {
	switch key {
	case "store.driver":
		return c.Store.Driver
	case "store.dataDir":
		return c.Store.DataDir
	case "store.dbPath":
		return c.Store.DBPath
	case "store.ledgerDir":
		return c.Store.LedgerDir
	case "http.addr":
		return c.HTTP.Addr
	case "settingsFile":
		return c.SettingsFile
	case "ledgerMapping":
		return c.LedgerMap
	}
	return ""
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
