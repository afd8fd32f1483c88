package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/labref/internal/config"
	"git.home.luguber.info/inful/labref/internal/fields"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/metrics"
	"git.home.luguber.info/inful/labref/internal/page"
)

// Generator assembles the reference site from one input table.
type Generator struct {
	cfg       *config.Config
	inputPath string
	outputDir string // final output dir
	stageDir  string // ephemeral staging dir for the current build
	assetsDir string
	aliases   fields.Aliases
	delimiter rune
	renderer  *page.Renderer
	recorder  metrics.Recorder
	progress  io.Writer
}

// NewGenerator validates cfg and prepares a generator. cfg.Input.Path and
// cfg.Output.Directory must be resolved by the caller.
func NewGenerator(cfg *config.Config) (*Generator, error) {
	if cfg.Input.Path == "" {
		return nil, ferrors.ConfigError("input path is required").Build()
	}
	aliases, err := cfg.Input.FieldAliases()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid input aliases").Fatal().Build()
	}
	delim, err := cfg.Input.DelimiterRune()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid input delimiter").Fatal().Build()
	}
	renderer, err := page.NewRenderer(page.Options{MarkdownDescription: cfg.Build.MarkdownDescription})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "load page templates").Fatal().Build()
	}
	assets := cfg.Output.AssetsDir
	if assets == "" {
		assets = filepath.Dir(cfg.Input.Path)
	}
	return &Generator{
		cfg:       cfg,
		inputPath: cfg.Input.Path,
		outputDir: filepath.Clean(cfg.Output.Directory),
		assetsDir: assets,
		aliases:   aliases,
		delimiter: delim,
		renderer:  renderer,
		recorder:  metrics.NoopRecorder{},
		progress:  io.Discard,
	}, nil
}

// WithRecorder attaches a metrics recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// WithProgress sets where one progress line per generated entry is written.
func (g *Generator) WithProgress(w io.Writer) *Generator {
	if w == nil {
		w = io.Discard
	}
	g.progress = w
	return g
}

// OutputDir is the directory the site is promoted to.
func (g *Generator) OutputDir() string { return g.outputDir }

func (g *Generator) strict() bool { return g.cfg.Build.FailurePolicy == config.FailureStrict }

// buildRoot is where stages write: the staging directory while a build runs.
func (g *Generator) buildRoot() string {
	if g.stageDir != "" {
		return g.stageDir
	}
	return g.outputDir
}

// Generate runs the full pipeline. The returned report is never nil; on error
// its outcome is failed or canceled and the previous output is untouched.
func (g *Generator) Generate(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(g.inputPath, g.outputDir, g.cfg.Output.Topology)
	log := slog.With(logfields.BuildID(report.BuildID))
	log.Info("Starting site generation", logfields.Input(g.inputPath), logfields.Output(g.outputDir), logfields.Topology(string(g.cfg.Output.Topology)))

	bs := newBuildState(g, report)
	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageReadInput, stageReadInput).
		Add(StageProcessRecords, stageProcessRecords).
		Add(StageWritePages, stageWritePages).
		Add(StageWriteAssets, stageWriteAssets).
		Add(StageWriteIndex, stageWriteIndex).
		Add(StageWriteManifest, stageWriteManifest).
		AddIf(!g.cfg.Build.SkipVerify, StageVerifyOutput, stageVerifyOutput).
		Build()

	err := runStages(ctx, bs, stages)
	if err == nil {
		if ferr := g.finalizeStaging(); ferr != nil {
			err = ferrors.WrapError(ferr, ferrors.CategoryFileSystem, "finalize staging").Fatal().Build()
			report.Errors = append(report.Errors, err)
		}
	}
	if err != nil {
		g.abortStaging()
	}

	report.finish()
	for _, is := range report.Issues {
		g.recorder.IncIssue(string(is.Code))
	}
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(string(report.Outcome))

	if err != nil {
		log.Error("Site generation failed", logfields.Error(err), slog.String("outcome", string(report.Outcome)))
		return report, fmt.Errorf("generate site: %w", err)
	}
	log.Info("Site generation completed", logfields.Output(g.outputDir), logfields.Count(report.Counts.Entries), slog.String("summary", report.Summary()))
	return report, nil
}
