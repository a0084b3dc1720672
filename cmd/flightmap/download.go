package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"

	"github.com/eak1mov/go-flightmap/cache"
	"github.com/eak1mov/go-flightmap/mercator"
	"github.com/eak1mov/go-flightmap/tile"
)

type downloadCmd struct {
	lat, lon float64
	zoom     int
	radius   int
	bbox     string
}

func (c *downloadCmd) Name() string     { return "download" }
func (c *downloadCmd) Synopsis() string { return "download tiles for offline use" }
func (c *downloadCmd) Usage() string {
	return "flightmap download -lat <deg> -lon <deg> -zoom <z> [-radius <tiles>]\n" +
		"flightmap download -bbox <w,s,e,n> -zoom <z>\n"
}
func (c *downloadCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.lat, "lat", 0, "Latitude of the area center")
	f.Float64Var(&c.lon, "lon", 0, "Longitude of the area center")
	f.IntVar(&c.zoom, "zoom", 15, "Zoom level")
	f.IntVar(&c.radius, "radius", 2, "Tiles around the center tile in each direction")
	f.StringVar(&c.bbox, "bbox", "", "Area as west,south,east,north instead of a center")
}

func (c *downloadCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	var bar *progressbar.ProgressBar
	progress := func(tile.ID, cache.Result) {
		if bar != nil {
			bar.Add(1)
		}
	}

	a, err := openApp(args, cache.WithProgress(progress))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if a.cfg.Offline {
		log.Println("downloads are disabled in offline mode")
		return subcommands.ExitUsageError
	}

	if c.zoom < 0 || c.zoom > mercator.MaxZoom {
		log.Printf("zoom %d out of range [0, %d]", c.zoom, mercator.MaxZoom)
		return subcommands.ExitUsageError
	}

	var report cache.Report
	if c.bbox != "" {
		bound, perr := parseBound(c.bbox)
		if perr != nil {
			log.Println(perr)
			return subcommands.ExitUsageError
		}
		bar = progressbar.NewOptions(len(tile.Cover(bound, uint32(c.zoom))), progressbar.OptionShowCount())
		report, err = a.cache.BulkDownloadBound(ctx, bound, uint32(c.zoom))
	} else {
		center, gerr := mercator.GeoToTile(mercator.LatLng{Lat: c.lat, Lng: c.lon}, c.zoom)
		if gerr != nil {
			log.Println(gerr)
			return subcommands.ExitUsageError
		}
		ids, _ := tile.Neighborhood(center, c.radius)
		bar = progressbar.NewOptions(len(ids), progressbar.OptionShowCount())
		report, err = a.cache.BulkDownload(ctx, center, c.radius)
	}
	bar.Finish()
	fmt.Println()

	fmt.Printf("%d of %d tiles downloaded (%d fetched, %d already cached, %d failed, %d outside the map)\n",
		report.Succeeded, report.Requested, report.Fetched, report.Cached, report.Failed, report.Skipped)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Printf("interrupted, %d tiles not attempted\n", report.Cancelled)
		return subcommands.ExitFailure
	case err != nil:
		log.Println(err)
		return subcommands.ExitFailure
	case report.Failed > 0:
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
