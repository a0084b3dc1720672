package cache

import (
	"context"
	"sync"

	"github.com/eak1mov/go-flightmap/tile"
)

// Response is delivered by Request.
type Response struct {
	ID     tile.ID
	Result Result
	Err    error
}

// Request looks a tile up in the background, so a render loop never blocks
// on the network. The returned channel receives exactly one Response.
// At most the configured number of workers run at once.
func (c *Cache) Request(ctx context.Context, tileID tile.ID, online bool) <-chan Response {
	ch := make(chan Response, 1)
	go func() {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			ch <- Response{ID: tileID, Result: missResult}
			return
		}
		defer c.sem.Release(1)

		res, err := c.GetTile(ctx, tileID, online)
		ch <- Response{ID: tileID, Result: res, Err: err}
	}()
	return ch
}

// Download is a bulk download running in the background.
type Download struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	report Report
	err    error
}

// StartBulkDownload runs BulkDownload in the background.
func (c *Cache) StartBulkDownload(ctx context.Context, center tile.ID, radius int) *Download {
	ctx, cancel := context.WithCancel(ctx)
	d := &Download{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(d.done)
		defer cancel()
		report, err := c.BulkDownload(ctx, center, radius)
		d.mu.Lock()
		d.report, d.err = report, err
		d.mu.Unlock()
	}()
	return d
}

// Done is closed when the download has finished.
func (d *Download) Done() <-chan struct{} {
	return d.done
}

// Cancel stops the download. Tiles already fetched stay cached.
func (d *Download) Cancel() {
	d.cancel()
}

// Wait blocks until the download has finished and returns its result.
func (d *Download) Wait() (Report, error) {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report, d.err
}
