// Package mercator converts between geographic coordinates, world pixels and
// tile indices in the Web Mercator projection (EPSG:3857) used by slippy-map
// tile providers.
//
// All functions are pure and safe for concurrent use.
package mercator

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/eak1mov/go-flightmap/tile"
)

const (
	TileSize = 256

	// MaxLatitude is the latitude at which the projected world becomes square.
	MaxLatitude = 85.05112878

	MaxZoom = 30

	earthCircumference = 40075016.686 // meters at equator
)

var ErrDomain = errors.New("flightmap: coordinate outside projection domain")

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

func (ll LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", ll.Lat, ll.Lng)
}

// Point is a position in world pixels at some zoom level: the origin is the
// north-west corner of the projected world, independent of any viewport.
type Point struct {
	X float64
	Y float64
}

// Round returns the nearest integer pixel.
func (p Point) Round() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// FromImagePoint lifts an integer pixel into world-pixel space.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(k float64) Point {
	return Point{p.X * k, p.Y * k}
}

// WorldSize returns the width and height of the projected world in pixels.
func WorldSize(zoom int) float64 {
	return float64(TileSize) * math.Exp2(float64(zoom))
}

func checkZoom(zoom int) error {
	if zoom < 0 || zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d out of range [0, %d]", ErrDomain, zoom, MaxZoom)
	}
	return nil
}

// ClampLatitude limits lat to the square Mercator world [-MaxLatitude, MaxLatitude].
func ClampLatitude(lat float64) float64 {
	return max(-MaxLatitude, min(lat, MaxLatitude))
}

// GeoToWorldPixel projects ll to world pixels at the given zoom level.
// It fails with ErrDomain at or beyond the poles, where the projection is
// undefined, and for longitudes outside [-180, 180]; callers should clamp
// with ClampLatitude first.
func GeoToWorldPixel(ll LatLng, zoom int) (Point, error) {
	if err := checkZoom(zoom); err != nil {
		return Point{}, err
	}
	if !(math.Abs(ll.Lat) < 90) || !(math.Abs(ll.Lng) <= 180) {
		return Point{}, fmt.Errorf("%w: %v", ErrDomain, ll)
	}
	size := WorldSize(zoom)
	latRad := ll.Lat * math.Pi / 180
	x := (ll.Lng + 180) / 360 * size
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * size
	return Point{X: x, Y: y}, nil
}

// WorldPixelToGeo is the inverse of GeoToWorldPixel.
func WorldPixelToGeo(p Point, zoom int) (LatLng, error) {
	if err := checkZoom(zoom); err != nil {
		return LatLng{}, err
	}
	size := WorldSize(zoom)
	lng := p.X/size*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*p.Y/size)))
	return LatLng{Lat: latRad * 180 / math.Pi, Lng: lng}, nil
}

// WorldPixelToTile returns the tile containing the world pixel p.
// Pixels on the east or south edge of the world belong to the last tile;
// anything outside [0, WorldSize] fails with tile.ErrInvalidID.
func WorldPixelToTile(p Point, zoom int) (tile.ID, error) {
	if err := checkZoom(zoom); err != nil {
		return tile.ID{}, err
	}
	size := WorldSize(zoom)
	if !(p.X >= 0 && p.X <= size && p.Y >= 0 && p.Y <= size) {
		return tile.ID{}, fmt.Errorf("%w: pixel (%v, %v) outside world at zoom %d", tile.ErrInvalidID, p.X, p.Y, zoom)
	}
	last := 1<<zoom - 1
	x := min(int(math.Floor(p.X/TileSize)), last)
	y := min(int(math.Floor(p.Y/TileSize)), last)
	return tile.NewID(zoom, x, y)
}

// GeoToTile returns the tile containing ll at the given zoom level.
func GeoToTile(ll LatLng, zoom int) (tile.ID, error) {
	p, err := GeoToWorldPixel(ll, zoom)
	if err != nil {
		return tile.ID{}, err
	}
	return WorldPixelToTile(p, zoom)
}

// TileOrigin returns the world pixel of the north-west corner of t.
func TileOrigin(t tile.ID) Point {
	return Point{X: float64(t.X) * TileSize, Y: float64(t.Y) * TileSize}
}

// MetersPerPixel returns the ground resolution at latitude lat.
func MetersPerPixel(lat float64, zoom int) float64 {
	return earthCircumference * math.Cos(lat*math.Pi/180) / WorldSize(zoom)
}
