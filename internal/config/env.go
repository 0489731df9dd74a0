package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override values from the configuration file.
const (
	EnvBaseURL   = "SCHOLARSITE_BASE_URL"
	EnvOutputDir = "SCHOLARSITE_OUTPUT_DIR"
	EnvLogLevel  = "SCHOLARSITE_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local when present. Existing process
// environment variables are not overwritten.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", "path", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", name)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Export.BaseURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
}
