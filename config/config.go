// Package config loads the flightmap configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eak1mov/go-flightmap/fetch"
)

var ErrInvalid = errors.New("flightmap: invalid configuration")

const appName = "flightmap"

type Config struct {
	CacheDir string `yaml:"cache_dir"`
	Provider string `yaml:"provider"`
	// URLTemplate overrides Provider with a custom tile server.
	URLTemplate string `yaml:"url_template"`
	APIKey      string `yaml:"api_key"`
	APIKeyFile  string `yaml:"api_key_file"`
	Workers     int    `yaml:"workers"`
	MemoryTiles int    `yaml:"memory_tiles"`
	Offline     bool   `yaml:"offline"`
	Log         Log    `yaml:"log"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		CacheDir:    filepath.Join(userDir(os.UserCacheDir), appName, "tiles"),
		Provider:    fetch.Bing.Name,
		APIKeyFile:  filepath.Join(userDir(os.UserConfigDir), appName, "bing_key.txt"),
		Workers:     10,
		MemoryTiles: 256,
		Log: Log{
			Level: "info",
			File:  filepath.Join(userDir(os.UserConfigDir), appName, appName+".slog"),
		},
	}
}

// DefaultPath returns the location of the configuration file used when none
// is given on the command line.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), appName, "config.yaml")
}

func userDir(dir func() (string, error)) string {
	d, err := dir()
	if err != nil {
		return "."
	}
	return d
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their Default values; unknown fields are rejected.
func Load(filePath string) (Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.CacheDir = expandHome(cfg.CacheDir)
	cfg.APIKeyFile = expandHome(cfg.APIKeyFile)
	cfg.Log.File = expandHome(cfg.Log.File)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.CacheDir == "":
		return fmt.Errorf("%w: cache_dir is empty", ErrInvalid)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	case c.MemoryTiles < 0:
		return fmt.Errorf("%w: memory_tiles must not be negative, got %d", ErrInvalid, c.MemoryTiles)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	if c.URLTemplate == "" {
		if _, err := fetch.LookupProvider(c.Provider); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// TileProvider returns the configured tile server.
func (c Config) TileProvider() (fetch.Provider, error) {
	if c.URLTemplate == "" {
		return fetch.LookupProvider(c.Provider)
	}
	ext := strings.TrimPrefix(path.Ext(strings.SplitN(c.URLTemplate, "?", 2)[0]), ".")
	if strings.ContainsAny(ext, "{}") {
		ext = ""
	}
	return fetch.Provider{
		Name:     "custom",
		Template: c.URLTemplate,
		KeyParam: "key",
		Ext:      ext,
	}, nil
}

// Key returns the API key: the inline key, else the trimmed contents of the
// key file. A missing key file means no key.
func (c Config) Key() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if c.APIKeyFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.APIKeyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
