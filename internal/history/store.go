// Package history keeps a small SQLite log of past site builds so operators
// can see when the reference site last changed and why a build warned.
package history

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/site"
)

// Build is one recorded generation run.
type Build struct {
	ID           int64
	BuildID      string
	Input        string
	Output       string
	Topology     string
	Outcome      string
	Start        time.Time
	Duration     time.Duration
	Rows         int
	Entries      int
	Skipped      int
	Collisions   int
	Pages        int
	Issues       int
	ManifestHash string
	Report       []byte // serialized build report, may be empty
}

// Store defines the interface for persisting and retrieving builds.
type Store interface {
	// Append records a finished build.
	Append(ctx context.Context, b Build) error

	// Recent returns up to n builds, newest first.
	Recent(ctx context.Context, n int) ([]Build, error)

	// Get returns the build with the given build id.
	Get(ctx context.Context, buildID string) (Build, error)

	// Close closes the store and releases resources.
	Close() error
}

// FromReport converts a finished build report into a history row.
func FromReport(r *site.BuildReport, serialized []byte) Build {
	return Build{
		BuildID:      r.BuildID,
		Input:        r.Input,
		Output:       r.Output,
		Topology:     string(r.Topology),
		Outcome:      string(r.Outcome),
		Start:        r.Start,
		Duration:     r.Duration(),
		Rows:         r.Counts.Rows,
		Entries:      r.Counts.Entries,
		Skipped:      r.Counts.Skipped,
		Collisions:   r.Counts.Collisions,
		Pages:        r.Counts.Pages,
		Issues:       len(r.Issues),
		ManifestHash: r.ManifestHash,
		Report:       serialized,
	}
}

// wrap attaches cause to a sentinel so errors.Is still matches the sentinel.
func wrap(sentinel *ferrors.ClassifiedError, cause error) error {
	return ferrors.WrapError(cause, sentinel.Category(), sentinel.Message()).
		WithSeverity(sentinel.Severity()).Build()
}
