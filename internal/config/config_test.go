package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[engine]
frame_rate = "20ms"
max_frames = 100

[content]
scripts_dir = "lua"
spawn = ["orc", "orc", "crate"]

[logging]
format = "json"
`), "inline")
	require.NoError(t, err)

	assert.Equal(t, 20*time.Millisecond, cfg.Engine.FrameRate)
	assert.Equal(t, uint64(100), cfg.Engine.MaxFrames)
	assert.Equal(t, 0, cfg.Engine.WriterLimit)
	assert.Equal(t, "lua", cfg.Content.ScriptsDir)
	assert.Equal(t, "data/templates.yaml", cfg.Content.Templates)
	assert.Equal(t, []string{"orc", "orc", "crate"}, cfg.Content.Spawn)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte(`[engine]
frame_rate = "0s"`), "zero")
	require.ErrorContains(t, err, "frame_rate")

	_, err = Parse([]byte(`[engine]
writer_limit = -1`), "negative")
	require.ErrorContains(t, err, "writer_limit")

	_, err = Parse([]byte(`[engine`), "broken")
	require.ErrorContains(t, err, "parse config broken")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
