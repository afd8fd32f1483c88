package config

import (
	"runtime"

	"git.home.luguber.info/inful/labref/internal/fields"
)

// DefaultOutputDir is used when neither flag, env nor config names an output directory.
const DefaultOutputDir = "analyses"

func applyDefaults(cfg *Config) {
	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = string(fields.DefaultDelimiter)
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.Topology == "" {
		cfg.Output.Topology = TopologyDual
	}
	if cfg.Output.Index == "" {
		cfg.Output.Index = IndexShell
	}
	if cfg.Build.FailurePolicy == "" {
		cfg.Build.FailurePolicy = FailureSkip
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
