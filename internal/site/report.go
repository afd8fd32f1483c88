package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/labref/internal/config"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are a stable contract and should only be appended.
type ReportIssueCode string

const (
	IssueRowSkipped       ReportIssueCode = "ROW_SKIPPED"
	IssueRangeUnparseable ReportIssueCode = "RANGE_UNPARSEABLE"
	IssueBoundsInverted   ReportIssueCode = "BOUNDS_INVERTED"
	IssueSlugCollision    ReportIssueCode = "SLUG_COLLISION"
	IssueEmptyResult      ReportIssueCode = "EMPTY_RESULT"
	IssueMissingColumns   ReportIssueCode = "MISSING_COLUMNS"
	IssueBrokenLink       ReportIssueCode = "BROKEN_LINK"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem encountered.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Stage    StageName       `json:"stage"`
	Severity IssueSeverity   `json:"severity"`
	Row      int             `json:"row,omitempty"`
	Slug     string          `json:"slug,omitempty"`
	Message  string          `json:"message"`
}

// Counts aggregates row level results.
type Counts struct {
	Rows        int `json:"rows"`
	Entries     int `json:"entries"`
	Skipped     int `json:"skipped"`
	Collisions  int `json:"collisions"`
	Unparseable int `json:"unparseable_ranges"`
	Pages       int `json:"pages"`
}

// BuildReport captures what a single generation run did.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Input         string
	Output        string
	Topology      config.Topology
	Start         time.Time
	End           time.Time
	Outcome       BuildOutcome
	Counts        Counts
	// ManifestHash is the sha256 of the serialized manifest.
	ManifestHash    string
	StageDurations  map[StageName]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	Issues          []ReportIssue
	Errors          []error
	// AssetSources records where each static asset came from ("embedded" or a path).
	AssetSources map[string]string

	mu           sync.Mutex
	fingerprints map[string]string
}

func newBuildReport(input, output string, topology config.Topology) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Input:           input,
		Output:          output,
		Topology:        topology,
		Start:           time.Now(),
		StageDurations:  make(map[StageName]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		AssetSources:    make(map[string]string),
		fingerprints:    make(map[string]string),
	}
}

// AddIssue appends a structured issue.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, row int, slug, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Row: row, Slug: slug, Message: msg})
}

// IssuesWithCode returns the issues carrying code, in insertion order.
func (r *BuildReport) IssuesWithCode(code ReportIssueCode) []ReportIssue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ReportIssue
	for _, is := range r.Issues {
		if is.Code == code {
			out = append(out, is)
		}
	}
	return out
}

// SetFingerprint records the content fingerprint of the page written for slug.
func (r *BuildReport) SetFingerprint(slug, fp string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fingerprints[slug] = fp
}

// Fingerprints returns a copy of the slug to fingerprint map.
func (r *BuildReport) Fingerprints() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.fingerprints))
	for k, v := range r.fingerprints {
		out[k] = v
	}
	return out
}

func (r *BuildReport) recordStageError(se *StageError) {
	r.StageErrorKinds[se.Stage] = se.Kind
	if se.Kind != StageErrorWarning {
		r.Errors = append(r.Errors, se)
	}
}

func (r *BuildReport) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

// deriveOutcome sets Outcome from recorded errors and issue severities.
func (r *BuildReport) deriveOutcome() {
	for _, kind := range r.StageErrorKinds {
		if kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	if len(r.Errors) > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	for _, is := range r.Issues {
		if is.Severity == SeverityWarning || is.Severity == SeverityError {
			r.Outcome = OutcomeWarning
			return
		}
	}
	r.Outcome = OutcomeSuccess
}

// Duration is the wall time between start and finish.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("rows=%d entries=%d skipped=%d collisions=%d pages=%d issues=%d duration=%s outcome=%s",
		r.Counts.Rows, r.Counts.Entries, r.Counts.Skipped, r.Counts.Collisions, r.Counts.Pages,
		len(r.Issues), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the JSON report to path atomically. The path must lie
// outside the output tree, which stays deterministic.
func (r *BuildReport) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}

// BuildReportSerializable mirrors BuildReport with JSON friendly field types.
type BuildReportSerializable struct {
	SchemaVersion  int               `json:"schema_version"`
	BuildID        string            `json:"build_id"`
	Input          string            `json:"input"`
	Output         string            `json:"output"`
	Topology       string            `json:"topology"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	Outcome        string            `json:"outcome"`
	Counts         Counts            `json:"counts"`
	ManifestHash   string            `json:"manifest_hash,omitempty"`
	StageDurations map[string]int64  `json:"stage_durations_ms"`
	StageErrors    map[string]string `json:"stage_error_kinds"`
	Issues         []ReportIssue     `json:"issues"`
	Errors         []string          `json:"errors"`
	AssetSources   map[string]string `json:"asset_sources"`
	Fingerprints   map[string]string `json:"fingerprints"`
}

// Serializable returns the JSON form of the report.
func (r *BuildReport) Serializable() *BuildReportSerializable { return r.sanitizedCopy() }

func (r *BuildReport) sanitizedCopy() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:  r.SchemaVersion,
		BuildID:        r.BuildID,
		Input:          r.Input,
		Output:         r.Output,
		Topology:       string(r.Topology),
		Start:          r.Start,
		End:            r.End,
		Outcome:        string(r.Outcome),
		Counts:         r.Counts,
		ManifestHash:   r.ManifestHash,
		StageDurations: make(map[string]int64, len(r.StageDurations)),
		StageErrors:    make(map[string]string, len(r.StageErrorKinds)),
		Issues:         append([]ReportIssue{}, r.Issues...),
		Errors:         make([]string, len(r.Errors)),
		AssetSources:   r.AssetSources,
		Fingerprints:   r.Fingerprints(),
	}
	for k, v := range r.StageDurations {
		s.StageDurations[string(k)] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrors[string(k)] = string(v)
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	return s
}
