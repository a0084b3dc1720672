package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-flightmap/config"
	"github.com/eak1mov/go-flightmap/fetch"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "bing", cfg.Provider)
	require.Equal(t, "bing_key.txt", filepath.Base(cfg.APIKeyFile))

	p, err := cfg.TileProvider()
	require.NoError(t, err)
	require.Equal(t, fetch.Bing, p)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "config.yaml")
	data := []byte(`
cache_dir: /var/cache/tiles
provider: osm
workers: 4
offline: true
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(filePath, data, 0644))

	got, err := config.Load(filePath)
	require.NoError(t, err)

	want := config.Default()
	want.CacheDir = "/var/cache/tiles"
	want.Provider = "osm"
	want.Workers = 4
	want.Offline = true
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want+got):\n%s", diff)
	}

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEmpty(t *testing.T) {
	got, err := config.Parse(nil)
	require.NoError(t, err)
	require.Equal(t, config.Default(), got)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"unknown field", "zoom: 3"},
		{"zero workers", "workers: 0"},
		{"negative memory", "memory_tiles: -1"},
		{"bad level", "log: {level: loud}"},
		{"unknown provider", "provider: nope"},
		{"empty cache dir", "cache_dir: ''"},
		{"malformed", "workers: [1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.data))
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestTileProviderTemplate(t *testing.T) {
	cfg := config.Default()
	cfg.URLTemplate = "https://maps.example.com/{z}/{x}/{y}.png?style=sat"

	p, err := cfg.TileProvider()
	require.NoError(t, err)
	require.Equal(t, "png", p.Extension())
	require.Equal(t, cfg.URLTemplate, p.Template)

	cfg.URLTemplate = "https://maps.example.com/tiles/{q}"
	p, err = cfg.TileProvider()
	require.NoError(t, err)
	require.Equal(t, "jpeg", p.Extension())
}

func TestKey(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.APIKeyFile = filepath.Join(dir, "bing_key.txt")

	key, err := cfg.Key()
	require.NoError(t, err)
	require.Empty(t, key)

	require.NoError(t, os.WriteFile(cfg.APIKeyFile, []byte("  s3cr3t\n"), 0600))
	key, err = cfg.Key()
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", key)

	cfg.APIKey = "inline"
	key, err = cfg.Key()
	require.NoError(t, err)
	require.Equal(t, "inline", key)
}
