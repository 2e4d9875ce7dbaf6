package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"XOSO_CONFIG", "XOSO_PORT", "XOSO_DATA_DIR", "XOSO_VARIANT",
		"XOSO_LOG_FILE", "XOSO_TOASTS", "XOSO_VERBOSE", "XOSO_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "standard", cfg.Variant)
	assert.True(t, cfg.Toasts)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)

	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, 15, layout["consolation"].Max)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "xoso.yaml")
	content := "port: \"9090\"\nvariant: extended\ntoasts: false\ndata_dir: /tmp/xoso\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("XOSO_PORT", "7070")
	t.Setenv("XOSO_ALLOWED_ORIGINS", "http://board.local, http://tv.local")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "environment wins over file")
	assert.Equal(t, "extended", cfg.Variant)
	assert.False(t, cfg.Toasts)
	assert.Equal(t, "/tmp/xoso", cfg.DataDir)
	assert.Equal(t, []string{"http://board.local", "http://tv.local"}, cfg.AllowedOrigins)

	layout, err := cfg.Layout()
	require.NoError(t, err)
	assert.Equal(t, 45, layout["consolation"].Max)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown variant", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("XOSO_VARIANT", "mega")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown variant")
	})

	t.Run("bad port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("XOSO_PORT", "eighty")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid port")
	})

	t.Run("bad bool falls back", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("XOSO_TOASTS", "maybe")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.Toasts)
	})
}
