// Package cache serves map tiles from a disk cache, fetching missing tiles
// from a tile server when online.
//
// The cache exclusively owns its directory. Tiles are stored one file per
// tile as <root>/z<zoom>/tile_<x>_<y>.<ext>, written atomically and removed
// only by Clear.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/eak1mov/go-flightmap/fetch"
	"github.com/eak1mov/go-flightmap/tile"
	"github.com/eak1mov/go-flightmap/xyz"
)

type Status int

const (
	// Miss means no tile is available now: offline, not cached, or the
	// fetch failed. Renderers draw a placeholder.
	Miss Status = iota
	Hit
)

func (s Status) String() string {
	if s == Hit {
		return "hit"
	}
	return "miss"
}

// Source tells where a hit was served from.
type Source int

const (
	SourceNone Source = iota
	SourceMemory
	SourceDisk
	SourceNetwork
)

func (s Source) String() string {
	switch s {
	case SourceMemory:
		return "memory"
	case SourceDisk:
		return "disk"
	case SourceNetwork:
		return "network"
	}
	return "none"
}

// Result is the outcome of a tile lookup. Data is shared between callers and
// must not be modified.
type Result struct {
	Status Status
	Source Source
	Data   []byte
}

func (r Result) Hit() bool { return r.Status == Hit }

var missResult = Result{Status: Miss}

// Stats are counters since the cache was opened.
type Stats struct {
	Tiles       int // tiles on disk
	Hits        int64
	Misses      int64
	Fetches     int64
	FetchErrors int64
}

type waiters struct {
	ctx    context.Context
	cancel context.CancelFunc
	n      int
}

type Cache struct {
	store    *xyz.Store
	provider fetch.Provider
	key      string
	fetcher  fetch.Fetcher
	logger   *slog.Logger
	workers  int
	progress func(tile.ID, Result)
	memory   *expirable.LRU[tile.ID, []byte]

	flight singleflight.Group
	sem    *semaphore.Weighted

	mu    sync.RWMutex
	index map[tile.ID]struct{}

	waitMu  sync.Mutex
	waiting map[string]*waiters

	hits, misses, fetches, fetchErrors atomic.Int64
}

// Open opens the cache rooted at root for tiles of the given provider,
// indexing the tiles already on disk and removing leftovers of interrupted
// writes.
func Open(root string, provider fetch.Provider, opts ...Option) (*Cache, error) {
	cfg := config{
		Logger:      slog.New(slog.DiscardHandler),
		Workers:     DefaultWorkers,
		MemoryTiles: DefaultMemoryTiles,
		MemoryTTL:   DefaultMemoryTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.NewHTTPFetcher()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	pattern := filepath.Join(root, "z{z}", "tile_{x}_{y}."+provider.Extension())
	store, err := xyz.New(pattern)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		store:    store,
		provider: provider,
		key:      cfg.Key,
		fetcher:  cfg.Fetcher,
		logger:   cfg.Logger,
		workers:  cfg.Workers,
		progress: cfg.Progress,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		index:    make(map[tile.ID]struct{}),
		waiting:  make(map[string]*waiters),
	}
	if cfg.MemoryTiles > 0 {
		c.memory = expirable.NewLRU[tile.ID, []byte](cfg.MemoryTiles, nil, cfg.MemoryTTL)
	}

	stale, err := store.RemoveStale()
	if err != nil {
		return nil, fmt.Errorf("failed to clean cache directory: %w", err)
	}
	if stale > 0 {
		c.logger.Info("removed interrupted tile writes", slog.Int("count", stale))
	}

	err = store.VisitIDs(func(tileID tile.ID) error {
		c.index[tileID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cache index: %w", err)
	}
	c.logger.Debug("cache opened", slog.String("root", root), slog.Int("tiles", len(c.index)))

	return c, nil
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.store.Root()
}

// Path returns the file a tile is cached in.
func (c *Cache) Path(tileID tile.ID) string {
	return c.store.Path(tileID)
}

// Has reports whether a tile is cached on disk.
func (c *Cache) Has(tileID tile.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[tileID]
	return ok
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	tiles := len(c.index)
	c.mu.RUnlock()
	return Stats{
		Tiles:       tiles,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Fetches:     c.fetches.Load(),
		FetchErrors: c.fetchErrors.Load(),
	}
}

// GetTile returns the cached tile, or fetches and caches it when online.
//
// The only error is tile.ErrInvalidID for indices outside the pyramid.
// Network and disk failures are logged and reported as a Miss, and failures
// are not cached: a later call retries. Concurrent calls for the same tile
// share one fetch.
func (c *Cache) GetTile(ctx context.Context, tileID tile.ID, online bool) (Result, error) {
	if err := tileID.Check(); err != nil {
		return Result{}, err
	}

	res := c.getTile(ctx, tileID, online)
	if res.Hit() {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res, nil
}

func (c *Cache) getTile(ctx context.Context, tileID tile.ID, online bool) Result {
	if res, ok := c.lookup(tileID); ok {
		return res
	}
	if !online {
		return missResult
	}

	key := tileID.String()
	fetchCtx := c.join(ctx, key)
	defer c.leave(key)

	ch := c.flight.DoChan(key, func() (any, error) {
		// a previous flight may have stored the tile since the lookup
		if res, ok := c.lookup(tileID); ok {
			return res, nil
		}
		return c.fetchAndStore(fetchCtx, tileID), nil
	})
	select {
	case r := <-ch:
		if res, ok := r.Val.(Result); ok {
			return res
		}
		return missResult
	case <-ctx.Done():
		return missResult
	}
}

// join registers a caller waiting for the flight of key and returns the
// context the flight fetches with. It is cancelled once every waiter has
// left, so one caller giving up does not fail the fetch for the others.
func (c *Cache) join(ctx context.Context, key string) context.Context {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	w, ok := c.waiting[key]
	if !ok {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w = &waiters{ctx: fetchCtx, cancel: cancel}
		c.waiting[key] = w
	}
	w.n++
	return w.ctx
}

func (c *Cache) leave(key string) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	w := c.waiting[key]
	w.n--
	if w.n == 0 {
		w.cancel()
		delete(c.waiting, key)
	}
}

func (c *Cache) lookup(tileID tile.ID) (Result, bool) {
	if c.memory != nil {
		if data, ok := c.memory.Get(tileID); ok {
			return Result{Status: Hit, Source: SourceMemory, Data: data}, true
		}
	}
	if !c.Has(tileID) {
		return Result{}, false
	}

	data, err := c.store.ReadTile(tileID)
	if err != nil || len(data) == 0 {
		if err != nil {
			c.logger.Warn("failed to read cached tile",
				slog.String("tile", tileID.String()), slog.Any("error", err))
		}
		c.forget(tileID)
		return Result{}, false
	}
	if c.memory != nil {
		c.memory.Add(tileID, data)
	}
	return Result{Status: Hit, Source: SourceDisk, Data: data}, true
}

func (c *Cache) fetchAndStore(ctx context.Context, tileID tile.ID) Result {
	url, err := c.provider.URL(tileID, c.key)
	if err != nil {
		c.logger.Warn("cannot build tile url", slog.String("tile", tileID.String()), slog.Any("error", err))
		return missResult
	}

	c.fetches.Add(1)
	data, err := c.fetcher.Fetch(ctx, url)
	if err == nil && len(data) == 0 {
		err = &fetch.Error{URL: url, NotFound: true, Err: errors.New("empty tile")}
	}
	if err != nil {
		c.fetchErrors.Add(1)
		c.logger.Warn("tile fetch failed",
			slog.String("tile", tileID.String()),
			slog.Bool("not_found", errors.Is(err, fetch.ErrNotFound)),
			slog.String("error", fetch.Redact(err.Error(), c.key)))
		return missResult
	}

	if err := c.write(tileID, data); err != nil {
		// the bytes are still good for this request
		c.logger.Warn("failed to cache tile", slog.String("tile", tileID.String()), slog.Any("error", err))
	}
	return Result{Status: Hit, Source: SourceNetwork, Data: data}
}

func (c *Cache) write(tileID tile.ID, data []byte) error {
	if err := c.store.WriteTile(tileID, data); err != nil {
		return err
	}
	c.mu.Lock()
	c.index[tileID] = struct{}{}
	c.mu.Unlock()
	if c.memory != nil {
		c.memory.Add(tileID, data)
	}
	return nil
}

func (c *Cache) forget(tileID tile.ID) {
	c.mu.Lock()
	delete(c.index, tileID)
	c.mu.Unlock()
	if c.memory != nil {
		c.memory.Remove(tileID)
	}
}

// Put stores tile data obtained elsewhere, e.g. from an offline pack.
// It is serialized with fetches and other writes of the same tile, and its
// data replaces whatever they stored.
func (c *Cache) Put(tileID tile.ID, data []byte) error {
	if err := tileID.Check(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	for {
		written := false
		_, err, _ := c.flight.Do(tileID.String(), func() (any, error) {
			written = true
			if err := c.write(tileID, data); err != nil {
				return missResult, err
			}
			return Result{Status: Hit, Source: SourceDisk, Data: data}, nil
		})
		// joined someone else's flight: wait for it, then write our own bytes
		if written {
			return err
		}
	}
}

// Clear deletes the cached tiles of the given zoom levels, or of all levels
// when none are given, and returns the number of tiles deleted.
func (c *Cache) Clear(zooms ...uint32) (int, error) {
	match := func(tileID tile.ID) bool {
		if len(zooms) == 0 {
			return true
		}
		for _, z := range zooms {
			if tileID.Z == z {
				return true
			}
		}
		return false
	}

	var ids []tile.ID
	err := c.store.VisitIDs(func(tileID tile.ID) error {
		if match(tileID) {
			ids = append(ids, tileID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	for _, tileID := range ids {
		removed, err := c.store.RemoveTile(tileID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.forget(tileID)
		if removed {
			deleted++
		}
	}
	c.logger.Info("cache cleared", slog.Int("deleted", deleted), slog.Any("zooms", zooms))
	return deleted, errors.Join(errs...)
}
