package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-flightmap/mercator"
	"github.com/eak1mov/go-flightmap/viewport"
)

type locateCmd struct {
	lat, lon      float64
	zoom          int
	width, height int
}

func (c *locateCmd) Name() string     { return "locate" }
func (c *locateCmd) Synopsis() string { return "show the tile and pixel of a location" }
func (c *locateCmd) Usage() string {
	return "flightmap locate -lat <deg> -lon <deg> -zoom <z> [-width <px> -height <px>]\n"
}
func (c *locateCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.lat, "lat", 0, "Latitude")
	f.Float64Var(&c.lon, "lon", 0, "Longitude")
	f.IntVar(&c.zoom, "zoom", 15, "Zoom level")
	f.IntVar(&c.width, "width", 0, "Screen width; with -height lists the tiles on screen")
	f.IntVar(&c.height, "height", 0, "Screen height")
}

func (c *locateCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	ll := mercator.LatLng{Lat: c.lat, Lng: c.lon}
	world, err := mercator.GeoToWorldPixel(ll, c.zoom)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}
	tileID, err := mercator.WorldPixelToTile(world, c.zoom)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}

	fmt.Printf("location:    %v\n", ll)
	fmt.Printf("tile:        %v\n", tileID)
	fmt.Printf("quadkey:     %s\n", tileID.QuadKey())
	fmt.Printf("world pixel: %.1f,%.1f\n", world.X, world.Y)
	fmt.Printf("in tile:     %v\n", world.Sub(mercator.TileOrigin(tileID)).Round())
	fmt.Printf("resolution:  %.3f m/px\n", mercator.MetersPerPixel(c.lat, c.zoom))

	if c.width <= 0 || c.height <= 0 {
		return subcommands.ExitSuccess
	}

	size := image.Pt(c.width, c.height)
	vp, err := viewport.New(ll, c.zoom, size)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	a, err := openApp(args)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	visible := viewport.VisibleTiles(vp, size)
	cached := 0
	for _, id := range visible {
		mark := " "
		if a.cache.Has(id) {
			mark = "*"
			cached++
		}
		fmt.Printf("%s %-14v at %v\n", mark, id, vp.TileScreenOrigin(id))
	}
	fmt.Printf("%d of %d visible tiles cached (zoom %d)\n", cached, len(visible), vp.Zoom)
	return subcommands.ExitSuccess
}
