package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/labref/internal/fields"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/manifest"
	"git.home.luguber.info/inful/labref/internal/metrics"
	"git.home.luguber.info/inful/labref/internal/page"
	"git.home.luguber.info/inful/labref/internal/slug"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StagePrepareOutput  StageName = "prepare_output"
	StageReadInput      StageName = "read_input"
	StageProcessRecords StageName = "process_records"
	StageWritePages     StageName = "write_pages"
	StageWriteAssets    StageName = "write_assets"
	StageWriteIndex     StageName = "write_index"
	StageWriteManifest  StageName = "write_manifest"
	StageVerifyOutput   StageName = "verify_output"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline assembles the ordered stage list for a build.
type Pipeline struct {
	defs []StageDef
}

func NewPipeline() *Pipeline { return &Pipeline{defs: make([]StageDef, 0, 8)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.defs = append(p.defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.defs))
	copy(out, p.defs)
	return out
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// pageJob is one entry ready to be written: final slug, page content and row.
type pageJob struct {
	Row  int
	Page page.Page
}

// BuildState carries mutable state across stages. Stages run sequentially;
// only write_pages fans out, and its workers write to disjoint slots.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	Header   []string
	Records  []fields.Record
	Jobs     []pageJob
	Manifest *manifest.Builder
	Slugs    *slug.Registry
}

// reservedSlugs would collide with files at the output root.
var reservedSlugs = []string{"index"}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator: g,
		Report:    report,
		Manifest:  manifest.NewBuilder(g.cfg.Output.Topology, g.cfg.Output.Host),
		Slugs:     slug.NewRegistry(reservedSlugs...),
	}
}

// runStages executes stages in order, recording timing and stopping on the first fatal error.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	rec := bs.Generator.recorder
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			bs.Report.recordStageError(se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.Name] = dur
		rec.ObserveStageDuration(string(st.Name), dur)
		slog.Debug("Stage finished", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Microseconds())/1000), logfields.Error(err))

		if err == nil {
			rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				se = newCanceledStageError(st.Name, err)
			} else {
				se = newFatalStageError(st.Name, err)
			}
		}
		bs.Report.recordStageError(se)
		switch se.Kind {
		case StageErrorWarning:
			rec.IncStageResult(string(st.Name), metrics.ResultWarning)
			continue
		case StageErrorCanceled:
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
		default:
			rec.IncStageResult(string(st.Name), metrics.ResultFatal)
		}
		return se
	}
	return nil
}
