package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/eak1mov/go-flightmap/cache"
	"github.com/eak1mov/go-flightmap/config"
	"github.com/eak1mov/go-flightmap/internal/logging"
)

// options are the global flags passed to every command.
type options struct {
	configPath string
	logLevel   string
}

type app struct {
	cfg    config.Config
	logger *logging.Logger
	cache  *cache.Cache
}

func loadConfig(opts options) (config.Config, error) {
	filePath := opts.configPath
	if filePath == "" {
		filePath = config.DefaultPath()
	}
	cfg, err := config.Load(filePath)
	if errors.Is(err, fs.ErrNotExist) && opts.configPath == "" {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func openApp(args []any, cacheOpts ...cache.Option) (*app, error) {
	var opts options
	if len(args) > 0 {
		opts, _ = args[0].(options)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File, os.Stderr)
	if err != nil {
		return nil, err
	}

	provider, err := cfg.TileProvider()
	if err != nil {
		logger.Close()
		return nil, err
	}
	key, err := cfg.Key()
	if err != nil {
		logger.Close()
		return nil, err
	}

	cacheOpts = append([]cache.Option{
		cache.WithKey(key),
		cache.WithLogger(logger.Logger),
		cache.WithWorkers(cfg.Workers),
		cache.WithMemoryTiles(cfg.MemoryTiles, cache.DefaultMemoryTTL),
	}, cacheOpts...)
	c, err := cache.Open(cfg.CacheDir, provider, cacheOpts...)
	if err != nil {
		logger.Close()
		return nil, err
	}
	logger.Debug("configuration loaded",
		slog.String("cache_dir", cfg.CacheDir),
		slog.String("provider", provider.Name),
		slog.String("log_file", logger.File))
	return &app{cfg: cfg, logger: logger, cache: c}, nil
}

func (a *app) Close() {
	if err := a.logger.Close(); err != nil {
		log.Println(err)
	}
}

// parseZooms parses a comma-separated list of zoom levels.
func parseZooms(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	var zooms []uint32
	for _, part := range strings.Split(s, ",") {
		z, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid zoom %q", part)
		}
		zooms = append(zooms, uint32(z))
	}
	return zooms, nil
}

// parseBound parses "west,south,east,north" in degrees.
func parseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: want west,south,east,north", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: west/south must not exceed east/north", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
