package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/eak1mov/go-flightmap/tile"
)

// Report summarizes a bulk download.
type Report struct {
	Requested int // cells of the square, including skipped ones
	Succeeded int // tiles available afterwards
	Failed    int
	Cached    int // succeeded without a fetch
	Fetched   int
	Skipped   int // cells outside the pyramid
	Cancelled int // tiles not attempted before cancellation
}

func (r *Report) add(res Result) {
	if !res.Hit() {
		r.Failed++
		return
	}
	r.Succeeded++
	if res.Source == SourceNetwork {
		r.Fetched++
	} else {
		r.Cached++
	}
}

// BulkDownload makes every tile of the (2*radius+1)^2 square around center
// available offline. Tiles already cached are not fetched again and one
// failed tile does not abort the others. Cells outside the pyramid are
// skipped.
//
// On cancellation no new fetches start; the returned report covers the
// tiles attempted so far and the error is the context error.
func (c *Cache) BulkDownload(ctx context.Context, center tile.ID, radius int) (Report, error) {
	if err := center.Check(); err != nil {
		return Report{}, err
	}
	ids, skipped := tile.Neighborhood(center, radius)
	report, err := c.download(ctx, ids)
	report.Requested += skipped
	report.Skipped = skipped
	return report, err
}

// BulkDownloadBound downloads the tiles covering bound at the given zoom.
func (c *Cache) BulkDownloadBound(ctx context.Context, bound orb.Bound, zoom uint32) (Report, error) {
	if zoom > tile.MaxZoom {
		return Report{}, tile.ID{Z: zoom}.Check()
	}
	return c.download(ctx, tile.Cover(bound, zoom))
}

func (c *Cache) download(ctx context.Context, ids []tile.ID) (Report, error) {
	report := Report{Requested: len(ids)}
	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(c.workers)

	attempted := 0
	for _, tileID := range ids {
		if ctx.Err() != nil {
			break
		}
		attempted++
		g.Go(func() error {
			res, err := c.GetTile(ctx, tileID, true)
			if err != nil {
				return err
			}
			mu.Lock()
			report.add(res)
			mu.Unlock()
			if c.progress != nil {
				c.progress(tileID, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Cancelled = len(ids) - attempted

	c.logger.Info("bulk download finished",
		slog.Int("requested", report.Requested),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("fetched", report.Fetched),
		slog.Int("cancelled", report.Cancelled))
	return report, ctx.Err()
}
