package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/labref/internal/config"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/manifest"
)

const sampleInput = "slug|title|summary|norm_mid|tags\n" +
	"glucose|Глюкоза|Сахар крови|3.3-5.5|кровь\n" +
	"alt|АЛТ|Печёночный фермент|0-41|печень, ферменты\n"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvInput, config.EnvOutput, config.EnvHost, config.EnvLogLevel, config.EnvStrict} {
		t.Setenv(k, "")
	}
}

// run parses args and executes the selected command, returning stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("labref"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Stdout: &out}, cli)
	return out.String(), err
}

func writeSample(t *testing.T) (dir, input string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleInput), 0o644))
	return dir, input
}

func TestBuildCommandWithSinks(t *testing.T) {
	clearEnv(t)
	dir, input := writeSample(t)
	out := filepath.Join(dir, "site")
	report := filepath.Join(dir, "meta", "report.json")
	db := filepath.Join(dir, "meta", "history.db")
	prom := filepath.Join(dir, "meta", "labref.prom")

	stdout, err := run(t, "build", "--input", input, "--output", out, "--topology", "FOLDER",
		"--host", "https://lab.example.org", "--report", report, "--history", db, "--metrics-file", prom)
	require.NoError(t, err)

	assert.Contains(t, stdout, "[1] generated: ")
	assert.Contains(t, stdout, "Generation complete: 2 pages")
	assert.FileExists(t, filepath.Join(out, "glucose", "index.html"))
	assert.NoFileExists(t, filepath.Join(out, "glucose.html"))
	assert.FileExists(t, report)

	entries, err := manifest.ReadFile(filepath.Join(out, manifest.FileName))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://lab.example.org/alt/", entries[1].URL)

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `labref_build_outcomes_total{outcome="success"} 1`)

	stdout, err = run(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OUTCOME")
	assert.Contains(t, stdout, "success")
}

func TestBuildIsDefaultCommand(t *testing.T) {
	clearEnv(t)
	dir, input := writeSample(t)

	_, err := run(t, "--input", input, "--output", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "index.html"))
}

func TestBuildMissingInputExitCode(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := run(t, "build", "--input", filepath.Join(dir, "nope.csv"), "--output", filepath.Join(dir, "out"))
	require.Error(t, err)

	adapter := ferrors.NewCLIErrorAdapter(false, nil)
	assert.Equal(t, 2, adapter.ExitCodeFor(err))
}

func TestBuildInvalidTopology(t *testing.T) {
	clearEnv(t)
	dir, input := writeSample(t)

	_, err := run(t, "build", "--input", input, "--output", filepath.Join(dir, "out"), "--topology", "tree")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestBuildExplicitConfigMustExist(t *testing.T) {
	clearEnv(t)
	dir, input := writeSample(t)

	_, err := run(t, "--config", filepath.Join(dir, "missing.yaml"), "build", "--input", input)
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestListCommand(t *testing.T) {
	clearEnv(t)
	dir, input := writeSample(t)
	out := filepath.Join(dir, "site")
	_, err := run(t, "build", "--input", input, "--output", out, "--topology", "flat")
	require.NoError(t, err)

	stdout, err := run(t, "list", out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SLUG"))
	assert.Contains(t, lines[1], "glucose")
	assert.Contains(t, lines[1], "glucose.html")
	assert.Contains(t, lines[2], "печень, ферменты")
	assert.Equal(t, "2 entries", lines[3])

	// the URL column starts at the same cell offset despite Cyrillic titles
	urlCell := runewidth.StringWidth(lines[1][:strings.Index(lines[1], "glucose.html")])
	assert.Equal(t, strings.Index(lines[0], "URL"), urlCell)
}

func TestListMissingManifest(t *testing.T) {
	clearEnv(t)
	_, err := run(t, "list", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestHistoryMissingDatabase(t *testing.T) {
	clearEnv(t)
	_, err := run(t, "history", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestInitCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	stdout, err := run(t, "init", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, config.DefaultFile)
	assert.FileExists(t, filepath.Join(dir, config.DefaultFile))

	_, err = run(t, "init", "--output", dir)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))

	_, err = run(t, "init", "--output", dir, "--force")
	require.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "labref "))

	stdout, err = run(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"go_version"`)
}

func TestWatchedFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Path = filepath.Join("data", "table.csv")
	assert.Equal(t, []string{
		filepath.Join("data", "table.csv"),
		filepath.Join("data", "style.css"),
		filepath.Join("data", "script.js"),
	}, watchedFiles(cfg))

	cfg.Output.AssetsDir = "theme"
	assert.Equal(t, filepath.Join("theme", "style.css"), watchedFiles(cfg)[1])
}
