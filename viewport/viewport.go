// Package viewport converts between screen pixels and geographic coordinates
// for a pannable, zoomable map view.
//
// A Viewport is a plain value owned by the caller (the UI layer) and passed to
// every query; the Resolver only holds the optional two-point calibration.
package viewport

import (
	"image"
	"math"

	"github.com/eak1mov/go-flightmap/mercator"
	"github.com/eak1mov/go-flightmap/tile"
)

// Zoom limits of the interactive map.
const (
	MinZoom = 1
	MaxZoom = 19
)

// Viewport describes what part of the world is on screen.
type Viewport struct {
	Center mercator.LatLng
	Zoom   int
	// Pan is the world pixel at the top-left corner of the screen.
	Pan image.Point
}

// New returns a viewport at the given zoom with center in the middle of a
// screen of the given size.
func New(center mercator.LatLng, zoom int, size image.Point) (Viewport, error) {
	zoom = clampZoom(zoom)
	center.Lat = mercator.ClampLatitude(center.Lat)
	world, err := mercator.GeoToWorldPixel(center, zoom)
	if err != nil {
		return Viewport{}, err
	}
	half := mercator.Point{X: float64(size.X) / 2, Y: float64(size.Y) / 2}
	return Viewport{
		Center: center,
		Zoom:   zoom,
		Pan:    world.Sub(half).Round(),
	}, nil
}

// ScreenToWorld returns the world pixel under the screen pixel.
func (vp Viewport) ScreenToWorld(screen image.Point) mercator.Point {
	return mercator.FromImagePoint(screen.Add(vp.Pan))
}

// TileScreenOrigin returns where the top-left corner of t is drawn on screen.
func (vp Viewport) TileScreenOrigin(t tile.ID) image.Point {
	return mercator.TileOrigin(t).Round().Sub(vp.Pan)
}

// VisibleTiles returns the tiles intersecting a screen of the given size,
// row by row, clipped to the tile pyramid.
func VisibleTiles(vp Viewport, size image.Point) []tile.ID {
	if size.X <= 0 || size.Y <= 0 || vp.Zoom < 0 || vp.Zoom > tile.MaxZoom {
		return nil
	}
	last := 1<<vp.Zoom - 1
	minX := max(floorDiv(vp.Pan.X, mercator.TileSize), 0)
	minY := max(floorDiv(vp.Pan.Y, mercator.TileSize), 0)
	maxX := min(floorDiv(vp.Pan.X+size.X-1, mercator.TileSize), last)
	maxY := min(floorDiv(vp.Pan.Y+size.Y-1, mercator.TileSize), last)

	var ids []tile.ID
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			ids = append(ids, tile.ID{X: uint32(x), Y: uint32(y), Z: uint32(vp.Zoom)})
		}
	}
	return ids
}

func floorDiv(a, b int) int {
	return int(math.Floor(float64(a) / float64(b)))
}

func clampZoom(zoom int) int {
	return max(MinZoom, min(zoom, MaxZoom))
}
