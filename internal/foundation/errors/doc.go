// Package errors provides classified error primitives used across labref.
//
// Key features:
//   - ErrorCategory: broad classification (config, not_found, input, build, etc.)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages for the CLI
//
// Example usage:
//
//	err := errors.NotFoundError("input file not found").
//		WithContext("path", inputPath).
//		Build()
package errors
