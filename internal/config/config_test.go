package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TrevorS/autohds"
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autohds.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	s, err := Load("", nil)
	require.NoError(t, err)

	cfg, err := s.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, autohds.DefaultConfig(), cfg)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
neps = 7
fshave = 0.3
measure = "pearson"
class_name = "label"
skip_header = true

[log]
json = true
`)
	t.Setenv("AUTOHDS_NEPS", "9")
	t.Setenv("AUTOHDS_RUNT_SIZE", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("fshave", 0.2, "")
	flags.Int("runt", 1, "")
	flags.Bool("single-cut", false, "")
	require.NoError(t, flags.Parse([]string{"--runt=6", "--single-cut"}))

	s, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Neps, "env overrides file")
	assert.Equal(t, 0.3, s.Fshave, "unset flag does not override file")
	assert.Equal(t, 6, s.RuntSize, "flag overrides env")
	assert.True(t, s.SingleCut)
	assert.True(t, s.Log.JSON)

	cfg, err := s.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, autohds.Pearson, cfg.Measure)
	assert.Equal(t, "label", cfg.ClassColumnName)
	assert.True(t, cfg.SkipHeader)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.Error(t, err)
}

func TestEngineConfigErrors(t *testing.T) {
	chdir(t, t.TempDir())
	s, err := Load("", nil)
	require.NoError(t, err)

	bad := *s
	bad.Measure = "manhattan"
	_, err = bad.EngineConfig()
	assert.True(t, errors.Is(err, autohds.ErrInvalidConfig))

	bad = *s
	bad.BufferMB = -1
	_, err = bad.EngineConfig()
	assert.True(t, errors.Is(err, autohds.ErrInvalidConfig))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
