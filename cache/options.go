package cache

import (
	"log/slog"
	"time"

	"github.com/eak1mov/go-flightmap/fetch"
	"github.com/eak1mov/go-flightmap/tile"
)

const (
	DefaultWorkers     = 10
	DefaultMemoryTiles = 256
	DefaultMemoryTTL   = 10 * time.Minute
)

type config struct {
	Fetcher     fetch.Fetcher
	Key         string
	Logger      *slog.Logger
	Workers     int
	MemoryTiles int
	MemoryTTL   time.Duration
	Progress    func(tile.ID, Result)
}

type Option func(*config)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(fetcher fetch.Fetcher) Option {
	return func(c *config) { c.Fetcher = fetcher }
}

// WithKey sets the API key passed to the provider.
func WithKey(key string) Option {
	return func(c *config) { c.Key = key }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithWorkers limits concurrent fetches of bulk downloads and background
// requests.
func WithWorkers(workers int) Option {
	return func(c *config) { c.Workers = workers }
}

// WithMemoryTiles sets the size of the in-memory set of recently served
// tiles; 0 disables it.
func WithMemoryTiles(size int, ttl time.Duration) Option {
	return func(c *config) {
		c.MemoryTiles = size
		c.MemoryTTL = ttl
	}
}

// WithProgress registers a callback invoked after each tile of a bulk
// download. It is called from worker goroutines.
func WithProgress(progress func(tile.ID, Result)) Option {
	return func(c *config) { c.Progress = progress }
}
