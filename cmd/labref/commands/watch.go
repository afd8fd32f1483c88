package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/labref/internal/config"
	"git.home.luguber.info/inful/labref/internal/logfields"
	"git.home.luguber.info/inful/labref/internal/metrics"
	"git.home.luguber.info/inful/labref/internal/site"
	"git.home.luguber.info/inful/labref/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags     `embed:""`
	Every         time.Duration `help:"Also rebuild on this interval, 0 disables"`
	Debounce      time.Duration `default:"500ms" help:"Quiet period after a change before rebuilding"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address, e.g. :9090"`
	History       string        `help:"Append every build to this SQLite history database" type:"path"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := w.SiteFlags.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	prom := metrics.NewPrometheusRecorder(nil)
	if w.MetricsListen != "" {
		stop := serveMetrics(w.MetricsListen, prom)
		defer stop()
	}

	watcher, err := watch.New(watch.Options{
		Files:    watchedFiles(cfg),
		Debounce: w.Debounce,
		Interval: w.Every,
	}, func(ctx context.Context, _ string) error {
		_, err := RunBuild(ctx, cfg, Sinks{History: w.History}, prom, g.out())
		return err
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// watchedFiles lists the input table and the asset overrides it may pick up.
func watchedFiles(cfg *config.Config) []string {
	assets := cfg.Output.AssetsDir
	if assets == "" {
		assets = filepath.Dir(cfg.Input.Path)
	}
	files := []string{cfg.Input.Path}
	for _, name := range site.AssetNames {
		files = append(files, filepath.Join(assets, name))
	}
	return files
}

// serveMetrics exposes /metrics until the returned stop function is called.
func serveMetrics(addr string, prom *metrics.PrometheusRecorder) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.HTTPHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
		<-done
	}
}
