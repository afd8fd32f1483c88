package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "missing input", err: NotFoundError("input file not found").Build(), expected: 2},
		{name: "strict mode row", err: ValidationError("row has no slug").Build(), expected: 4},
		{name: "unreadable input", err: InputError("read header").Build(), expected: 6},
		{name: "config", err: ConfigError("bad topology").Build(), expected: 7},
		{name: "build", err: BuildError("promote staging").Build(), expected: 11},
		{name: "filesystem", err: FileSystemError("write page").Build(), expected: 11},
		{name: "history", err: HistoryError("record build").Build(), expected: 12},
		{name: "internal", err: InternalError("embedded asset missing").Build(), expected: 10},
		{name: "wrapped classified", err: fmt.Errorf("run: %w", NotFoundError("x").Build()), expected: 2},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := NotFoundError("input file not found").WithContext("path", "data.csv").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if got := quiet.FormatError(err); got != "Error: input file not found (path=data.csv)" {
		t.Errorf("unexpected quiet format: %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(err); !strings.Contains(got, "[not_found:fatal]") {
		t.Errorf("verbose format should include classification, got %q", got)
	}

	if got := quiet.FormatError(&customError{msg: "boom"}); got != "Error: boom" {
		t.Errorf("unexpected unclassified format: %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logBuf, outBuf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))
	adapter.out = &outBuf

	code := adapter.Report(NotFoundError("input file not found").Build())
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(outBuf.String(), "input file not found") {
		t.Errorf("expected diagnostic on error channel, got %q", outBuf.String())
	}
	if !strings.Contains(logBuf.String(), "category=not_found") {
		t.Errorf("expected structured log entry, got %q", logBuf.String())
	}
}
