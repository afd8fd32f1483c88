// Package watch rebuilds the site when its inputs change or on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/labref/internal/logfields"
)

// DefaultDebounce collapses editor save bursts into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc performs one rebuild. reason names what triggered it.
type BuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	Files    []string      // files whose changes trigger a rebuild
	Debounce time.Duration // quiet period before a rebuild starts
	Interval time.Duration // periodic rebuild interval, 0 disables
}

// Watcher serializes rebuilds: at most one build runs at a time and triggers
// arriving during a build coalesce into a single follow-up.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	interval time.Duration
	build    BuildFunc

	fsw      *fsnotify.Watcher
	requests chan string
	wg       sync.WaitGroup
	builds   atomic.Int64
	failures atomic.Int64
}

// New creates a watcher for opts.Files. Parent directories are watched since
// editors commonly replace files by rename.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	if build == nil {
		return nil, fmt.Errorf("build function is required")
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(opts.Files)),
		debounce: opts.Debounce,
		interval: opts.Interval,
		build:    build,
		requests: make(chan string, 1),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	seen := make(map[string]bool)
	for _, f := range opts.Files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve watched path %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Builds returns how many rebuilds have run, including failed ones.
func (w *Watcher) Builds() int64 { return w.builds.Load() }

// Failures returns how many rebuilds returned an error.
func (w *Watcher) Failures() int64 { return w.failures.Load() }

// Run performs an initial build and then rebuilds on change or interval until
// ctx is done. Build errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	var sched gocron.Scheduler
	if w.interval > 0 {
		sched, err = w.startScheduler()
		if err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.wg.Add(1)
	go w.watchLoop()
	defer w.shutdown(sched)

	slog.Info("Watching for changes", slog.Int("files", len(w.files)), slog.Duration("interval", w.interval))
	w.runBuild(ctx, "initial")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := ""
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case reason := <-w.requests:
			pending = reason
			timer.Reset(w.debounce)
		case <-timer.C:
			w.runBuild(ctx, pending)
		}
	}
}

func (w *Watcher) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.request, "interval"),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	return s, nil
}

func (w *Watcher) shutdown(sched gocron.Scheduler) {
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}
	if err := w.fsw.Close(); err != nil {
		slog.Warn("Error closing file watcher", logfields.Error(err))
	}
	w.wg.Wait()
	slog.Info("Watcher stopped", slog.Int64("builds", w.Builds()))
}

// request queues a rebuild; a pending request absorbs new ones.
func (w *Watcher) request(reason string) {
	select {
	case w.requests <- reason:
	default:
	}
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if _, watched := w.files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				slog.Debug("Input change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				w.request("changed " + filepath.Base(event.Name))
			} else if event.Op&fsnotify.Remove != 0 {
				slog.Warn("Watched file removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	w.builds.Add(1)
	slog.Info("Rebuilding site", logfields.Reason(reason))
	if err := w.build(ctx, reason); err != nil {
		w.failures.Add(1)
		slog.Error("Rebuild failed", logfields.Reason(reason), logfields.Error(err))
	}
}
