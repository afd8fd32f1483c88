package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when --config is not given.
const DefaultFile = "labref.yaml"

// Config represents the application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig describes the delimited source table.
type InputConfig struct {
	Path      string `yaml:"path,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty"`
	// Aliases adds column names per canonical field; configured names are tried first.
	Aliases map[string][]string `yaml:"aliases,omitempty"`
}

// OutputConfig describes the generated site tree.
type OutputConfig struct {
	Directory string    `yaml:"directory"`
	Topology  Topology  `yaml:"topology"`
	Index     IndexMode `yaml:"index"`
	Host      string    `yaml:"host,omitempty"`
	AssetsDir string    `yaml:"assets_dir,omitempty"`
}

// BuildConfig tunes a single build.
type BuildConfig struct {
	FailurePolicy       FailurePolicy `yaml:"failure_policy"`
	Workers             int           `yaml:"workers,omitempty"`
	MarkdownDescription bool          `yaml:"markdown_description"`
	SkipVerify          bool          `yaml:"skip_verify,omitempty"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads configuration from configPath. A missing file is an error only when
// required is set; otherwise defaults are returned. Environment variables are
// expanded in the file content and LABREF_* overrides are applied last.
func Load(configPath string, required bool) (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
