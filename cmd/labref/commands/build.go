package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/history"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/metrics"
	"git.home.luguber.info/inful/labref/internal/site"
)

// SiteFlags are the build inputs shared by build and watch. Empty values keep
// what env and the config file resolved.
type SiteFlags struct {
	Input      string `short:"i" help:"Delimited input file (default data.csv next to the executable)" type:"path"`
	Output     string `short:"o" help:"Output directory (default analyses)" type:"path"`
	Host       string `help:"Absolute URL prefix for manifest links"`
	Topology   string `help:"Page layout: flat, folder or dual"`
	Index      string `help:"Index page mode: shell or cards"`
	Strict     bool   `help:"Abort on rows without slug or title and on broken links"`
	Assets     string `help:"Directory holding style.css and script.js overrides" type:"path"`
	Workers    int    `help:"Parallel page writers (default GOMAXPROCS)"`
	Markdown   bool   `help:"Render descriptions as Markdown"`
	SkipVerify bool   `name:"skip-verify" help:"Do not check links in the generated site"`
}

// Sinks are optional destinations for build results.
type Sinks struct {
	Report      string `help:"Write a JSON build report to this path" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this path" type:"path"`
	History     string `help:"Append the build to this SQLite history database" type:"path"`
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags `embed:""`
	Sinks     `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := b.SiteFlags.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		rec = prom
	}
	_, err = RunBuild(ctx, cfg, b.Sinks, rec, g.out())
	if prom != nil {
		if werr := prom.WriteTextfile(b.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(b.MetricsFile), logfields.Error(werr))
		}
	}
	return err
}

// apply layers non-empty flags over cfg and fills the default input path.
func (f SiteFlags) apply(cfg *config.Config) error {
	if f.Input != "" {
		cfg.Input.Path = f.Input
	}
	if cfg.Input.Path == "" {
		cfg.Input.Path = defaultInputPath()
	}
	if f.Output != "" {
		cfg.Output.Directory = f.Output
	}
	if f.Host != "" {
		cfg.Output.Host = f.Host
	}
	if f.Assets != "" {
		cfg.Output.AssetsDir = f.Assets
	}
	if f.Workers > 0 {
		cfg.Build.Workers = f.Workers
	}
	if f.Strict {
		cfg.Build.FailurePolicy = config.FailureStrict
	}
	if f.Markdown {
		cfg.Build.MarkdownDescription = true
	}
	if f.SkipVerify {
		cfg.Build.SkipVerify = true
	}
	if f.Topology != "" {
		t, err := config.NormalizeTopology(f.Topology)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid --topology").Fatal().Build()
		}
		cfg.Output.Topology = t
	}
	if f.Index != "" {
		m, err := config.NormalizeIndexMode(f.Index)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid --index").Fatal().Build()
		}
		cfg.Output.Index = m
	}
	return nil
}

// RunBuild generates the site once and records the result in the requested
// sinks. Sink failures are logged; the returned error is the build's own.
func RunBuild(ctx context.Context, cfg *config.Config, sinks Sinks, rec metrics.Recorder, out io.Writer) (*site.BuildReport, error) {
	_, _ = fmt.Fprintln(out, "Input:", cfg.Input.Path)
	_, _ = fmt.Fprintln(out, "Output:", cfg.Output.Directory)

	gen, err := site.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	report, genErr := gen.WithRecorder(rec).WithProgress(out).Generate(ctx)

	if sinks.Report != "" {
		if err := report.Persist(sinks.Report); err != nil {
			slog.Warn("Failed to write build report", logfields.Path(sinks.Report), logfields.Error(err))
		}
	}
	if sinks.History != "" {
		if err := recordHistory(ctx, sinks.History, report); err != nil {
			slog.Warn("Failed to record build history", logfields.Path(sinks.History), logfields.Error(err))
		}
	}
	if genErr != nil {
		return report, genErr
	}

	abs, _ := filepath.Abs(gen.OutputDir())
	_, _ = fmt.Fprintf(out, "Generation complete: %d pages -> %s\n", report.Counts.Entries, abs)
	return report, nil
}

func recordHistory(ctx context.Context, dbPath string, report *site.BuildReport) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return fmt.Errorf("ensure history directory: %w", err)
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	serialized, err := json.Marshal(report.Serializable())
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return store.Append(ctx, history.FromReport(report, serialized))
}
