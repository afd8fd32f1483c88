package config

import (
	"fmt"
	"sort"
	"strings"
)

// enum maps loosely written config values onto a typed constant set.
type enum[T ~string] struct {
	name   string
	values map[string]T
	def    T
}

func newEnum[T ~string](name string, def T, aliases map[string]T) enum[T] {
	values := make(map[string]T, len(aliases))
	for k, v := range aliases {
		values[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return enum[T]{name: name, values: values, def: def}
}

// normalize returns the default for empty input and an error for unknown values.
func (e enum[T]) normalize(raw T) (T, error) {
	cleaned := strings.ToLower(strings.TrimSpace(string(raw)))
	if cleaned == "" {
		return e.def, nil
	}
	if v, ok := e.values[cleaned]; ok {
		return v, nil
	}
	return e.def, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.keys(), ", "))
}

func (e enum[T]) keys() []string {
	out := make([]string, 0, len(e.values))
	for k := range e.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Topology decides which page files are written per entry.
type Topology string

const (
	TopologyFlat   Topology = "flat"
	TopologyFolder Topology = "folder"
	TopologyDual   Topology = "dual"
)

var topologies = newEnum("topology", TopologyDual, map[string]Topology{
	"flat":   TopologyFlat,
	"folder": TopologyFolder,
	"dir":    TopologyFolder,
	"dual":   TopologyDual,
	"both":   TopologyDual,
})

// NormalizeTopology resolves a raw topology name. Empty input yields the default.
func NormalizeTopology(raw string) (Topology, error) {
	return topologies.normalize(Topology(raw))
}

// IndexMode selects how index.html lists entries.
type IndexMode string

const (
	IndexShell IndexMode = "shell"
	IndexCards IndexMode = "cards"
)

var indexModes = newEnum("index mode", IndexShell, map[string]IndexMode{
	"shell":  IndexShell,
	"search": IndexShell,
	"cards":  IndexCards,
	"static": IndexCards,
})

func NormalizeIndexMode(raw string) (IndexMode, error) {
	return indexModes.normalize(IndexMode(raw))
}

// FailurePolicy controls what happens to rows that yield no usable entry.
type FailurePolicy string

const (
	FailureSkip   FailurePolicy = "skip"
	FailureStrict FailurePolicy = "strict"
)

var failurePolicies = newEnum("failure policy", FailureSkip, map[string]FailurePolicy{
	"skip":   FailureSkip,
	"warn":   FailureSkip,
	"strict": FailureStrict,
	"abort":  FailureStrict,
})

func NormalizeFailurePolicy(raw string) (FailurePolicy, error) {
	return failurePolicies.normalize(FailurePolicy(raw))
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = newEnum("log level", LogLevelInfo, map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
})

func NormalizeLogLevel(raw string) (LogLevel, error) {
	return logLevels.normalize(LogLevel(raw))
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormats = newEnum("log format", LogFormatText, map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
})

func NormalizeLogFormat(raw string) (LogFormat, error) {
	return logFormats.normalize(LogFormat(raw))
}
