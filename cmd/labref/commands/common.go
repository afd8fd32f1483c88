package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	// Stdout receives progress lines and listings; nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default labref.yaml if present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Generate the reference site"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild the site when the input changes or on an interval"`
	List    ListCmd    `cmd:"" help:"List the entries of a generated site"`
	History HistoryCmd `cmd:"" help:"Show recorded builds"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Show    VersionCmd `cmd:"" name:"version" help:"Show detailed version information"`
}

// AfterApply runs after flag parsing; it installs a logger before any
// configuration is read. loadConfig refines it from the config file.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		if lvl, err := config.NormalizeLogLevel(v); err == nil {
			level = slogLevel(lvl)
		}
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, config.LogFormatText))
	return nil
}

// loadConfig reads the configuration file and reinstalls the logger from it.
// An explicitly named file must exist; the default file is optional.
func (c *CLI) loadConfig() (*config.Config, error) {
	path, required := c.Config, true
	if path == "" {
		path, required = config.DefaultFile, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "load configuration").Fatal().WithContext("path", path).Build()
	}
	level := slogLevel(cfg.Logging.Level)
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, cfg.Logging.Format))
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaultInputPath is data.csv next to the executable, falling back to the
// working directory when the executable path cannot be resolved.
func defaultInputPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "data.csv"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "data.csv")
}
