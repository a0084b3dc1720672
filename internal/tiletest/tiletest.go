// Package tiletest provides fakes for testing tile consumers without a
// network.
package tiletest

import (
	"context"
	"fmt"
	"sync"

	"github.com/eak1mov/go-flightmap/fetch"
	"github.com/eak1mov/go-flightmap/tile"
)

// Provider builds URLs the Fetcher understands.
var Provider = fetch.Provider{
	Name:     "test",
	Template: "test://{z}/{x}/{y}",
	Ext:      "png",
}

// URL returns the Provider URL of a tile.
func URL(tileID tile.ID) string {
	u, err := Provider.URL(tileID, "")
	if err != nil {
		panic(err)
	}
	return u
}

// TileData returns deterministic content for a tile.
func TileData(tileID tile.ID) []byte {
	return fmt.Appendf(nil, "tile %v", tileID)
}

// Fetcher serves TileData for every URL built by Provider, except for the
// tiles marked as failing. It counts calls per URL and is safe for
// concurrent use.
type Fetcher struct {
	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int

	// Block, when set, is received from before each fetch returns.
	Block chan struct{}
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// Fail makes fetches of the given tiles fail with err.
func (f *Fetcher) Fail(err error, ids ...tile.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tileID := range ids {
		f.fail[URL(tileID)] = err
	}
}

// Heal removes all failures.
func (f *Fetcher) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.fail)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	err := f.fail[url]
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, &fetch.Error{URL: url, Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}

	var z, x, y uint32
	if _, err := fmt.Sscanf(url, "test://%d/%d/%d", &z, &x, &y); err != nil {
		return nil, &fetch.Error{URL: url, NotFound: true, Err: err}
	}
	return TileData(tile.ID{X: x, Y: y, Z: z}), nil
}

// Calls returns the number of fetches of a tile.
func (f *Fetcher) Calls(tileID tile.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[URL(tileID)]
}

// TotalCalls returns the number of fetches of all tiles.
func (f *Fetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
