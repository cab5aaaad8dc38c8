package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMappings(t *testing.T) {
	defaults := DefaultKeyMappings()

	assert.Equal(t, "q", defaults.Quit)
	assert.Equal(t, ">", defaults.MoveForward)
	assert.Equal(t, "/", defaults.Search)
	assert.Equal(t, "n", defaults.NewStory)
	assert.Equal(t, "ctrl+s", defaults.SaveForm)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "q", cfg.KeyMappings.Quit)
	assert.Equal(t, "127.0.0.1:7420", cfg.Server.Addr)
	assert.Equal(t, 300*time.Millisecond, cfg.Client.SearchDebounce)
	assert.Equal(t, "default", cfg.ColorScheme.Preset)
	assert.Empty(t, cfg.Server.RedisURL)
}

func TestLoadConfigWithFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvAPIURL, "")

	configDir := filepath.Join(tempDir, "storyboard")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	configContent := `key_mappings:
  quit: "x"
server:
  redis_url: "redis://localhost:6379/0"
  cache_ttl: 1m
client:
  search_debounce: 150ms
theme:
  preset: monochrome
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "x", cfg.KeyMappings.Quit)
	// missing keys are filled from defaults
	assert.Equal(t, "j", cfg.KeyMappings.NextStory)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Server.RedisURL)
	assert.Equal(t, time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, 150*time.Millisecond, cfg.Client.SearchDebounce)
	assert.Equal(t, MonochromeColorScheme().Accent, cfg.ColorScheme.Accent)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/board.db")
	t.Setenv(EnvAPIURL, "http://board.example:7420")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/board.db", cfg.DatabasePath)
	assert.Equal(t, "http://board.example:7420", cfg.Client.APIURL)
}

func TestThemeFileLoading(t *testing.T) {
	themeFile := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(themeFile, []byte("theme:\n  accent: \"#FF0000\"\n"), 0o644))
	t.Setenv(EnvThemeFile, themeFile)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", cfg.ColorScheme.Accent)
	assert.Equal(t, DefaultColorScheme().Title, cfg.ColorScheme.Title)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Client.APIURL = "http://localhost:7420"
	cfg.Client.Author = "ana"

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Client, loaded.Client)
	assert.Equal(t, cfg.Server, loaded.Server)
}
