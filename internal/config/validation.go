package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/labref/internal/fields"
)

// Validate normalizes enum values in place and checks the remaining fields.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error
	var err error

	if cfg.Output.Topology, err = NormalizeTopology(string(cfg.Output.Topology)); err != nil {
		errs = append(errs, err)
	}
	if cfg.Output.Index, err = NormalizeIndexMode(string(cfg.Output.Index)); err != nil {
		errs = append(errs, err)
	}
	if cfg.Build.FailurePolicy, err = NormalizeFailurePolicy(string(cfg.Build.FailurePolicy)); err != nil {
		errs = append(errs, err)
	}
	if cfg.Logging.Level, err = NormalizeLogLevel(string(cfg.Logging.Level)); err != nil {
		errs = append(errs, err)
	}
	if cfg.Logging.Format, err = NormalizeLogFormat(string(cfg.Logging.Format)); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.Input.DelimiterRune(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.Input.FieldAliases(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if cfg.Build.Workers < 0 {
		errs = append(errs, fmt.Errorf("build workers must not be negative, got %d", cfg.Build.Workers))
	}
	return errors.Join(errs...)
}

// DelimiterRune returns the single-character field separator. "tab" and "\t"
// are accepted for tab-separated input.
func (c InputConfig) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return fields.DefaultDelimiter, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", c.Delimiter)
	}
	return r, nil
}

// FieldAliases merges configured aliases into the default alias table.
func (c InputConfig) FieldAliases() (fields.Aliases, error) {
	return fields.DefaultAliases().Extend(c.Aliases)
}
