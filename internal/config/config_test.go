package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/labref/internal/fields"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvInput, EnvOutput, EnvHost, EnvLogLevel, EnvStrict} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingOptionalFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.Output.Directory)
	assert.Equal(t, TopologyDual, cfg.Output.Topology)
	assert.Equal(t, IndexShell, cfg.Output.Index)
	assert.Equal(t, FailureSkip, cfg.Build.FailurePolicy)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Build.Workers)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, "|", cfg.Input.Delimiter)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadNormalizesAndExpands(t *testing.T) {
	clearEnv(t)
	t.Setenv("SITE_HOST", "https://labs.example.org")
	path := writeConfig(t, "input:\n"+
		"  path: refs.csv\n"+
		"  delimiter: tab\n"+
		"  aliases:\n"+
		"    title: [analysis]\n"+
		"output:\n"+
		"  directory: public\n"+
		"  topology: \" Folder \"\n"+
		"  index: CARDS\n"+
		"  host: ${SITE_HOST}\n"+
		"build:\n"+
		"  failure_policy: strict\n"+
		"  workers: 3\n"+
		"logging:\n"+
		"  level: Warning\n")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "refs.csv", cfg.Input.Path)
	assert.Equal(t, "public", cfg.Output.Directory)
	assert.Equal(t, TopologyFolder, cfg.Output.Topology)
	assert.Equal(t, IndexCards, cfg.Output.Index)
	assert.Equal(t, "https://labs.example.org", cfg.Output.Host)
	assert.Equal(t, FailureStrict, cfg.Build.FailurePolicy)
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)

	r, err := cfg.Input.DelimiterRune()
	require.NoError(t, err)
	assert.Equal(t, '\t', r)

	aliases, err := cfg.Input.FieldAliases()
	require.NoError(t, err)
	assert.Equal(t, "analysis", aliases.For(fields.FieldTitle)[0])
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "output:\n  topology: spiral\n  index: grid\ninput:\n  delimiter: ab\n")

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid topology")
	assert.Contains(t, err.Error(), "invalid index mode")
	assert.Contains(t, err.Error(), "single character")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "output:\n  directry: typo\n")
	_, err := Load(path, true)
	require.Error(t, err)
}

func TestLoadRejectsUnknownAliasField(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "input:\n  aliases:\n    colour: [c]\n")
	_, err := Load(path, true)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOutput, "from-env")
	t.Setenv(EnvStrict, "true")
	t.Setenv(EnvLogLevel, "debug")
	path := writeConfig(t, "output:\n  directory: from-file\n")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Output.Directory)
	assert.Equal(t, FailureStrict, cfg.Build.FailurePolicy)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
}

func TestEmptyFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestInitRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "labref.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "existing file must not be overwritten")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", cfg.Input.Path)
	assert.Empty(t, cfg.Output.Host)
}

func TestDelimiterRune(t *testing.T) {
	cases := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", '|', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"‖", '‖', false},
		{"\"", 0, true},
		{"||", 0, true},
	}
	for _, tc := range cases {
		got, err := InputConfig{Delimiter: tc.in}.DelimiterRune()
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
