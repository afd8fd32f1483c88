package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables overriding config file values.
const (
	EnvInput    = "LABREF_INPUT"
	EnvOutput   = "LABREF_OUTPUT"
	EnvHost     = "LABREF_HOST"
	EnvLogLevel = "LABREF_LOG_LEVEL"
	EnvStrict   = "LABREF_STRICT"
)

// loadEnvFile loads .env then .env.local. Variables already present in the
// process environment are never overwritten.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		err := godotenv.Load(name)
		switch {
		case err == nil:
			slog.Debug("Loaded environment file", "path", name)
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("Failed to load environment file", "path", name, "error", err)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvInput); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output.Directory = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Output.Host = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	switch os.Getenv(EnvStrict) {
	case "1", "true", "yes":
		cfg.Build.FailurePolicy = FailureStrict
	}
}
