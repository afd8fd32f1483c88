package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	example := Config{
		Input: InputConfig{
			Path:      "data.csv",
			Delimiter: "|",
			Aliases: map[string][]string{
				"title": {"analysis"},
			},
		},
		Output: OutputConfig{
			Directory: DefaultOutputDir,
			Topology:  TopologyDual,
			Index:     IndexShell,
			Host:      "${LABREF_HOST}",
		},
		Build: BuildConfig{
			FailurePolicy: FailureSkip,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
