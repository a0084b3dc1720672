// Package calib maps pixels of an image without a known projection (a scanned
// or imported map) to geographic coordinates using two reference points.
//
// The model is a per-axis linear scale: no rotation or shear term. It is a
// first-order local approximation, good enough for small areas of north-up
// imagery.
package calib

import (
	"errors"
	"fmt"
	"math"

	"github.com/eak1mov/go-flightmap/mercator"
)

var ErrDegenerate = errors.New("flightmap: degenerate calibration")

// Pair is one pixel to geographic correspondence picked by the user.
type Pair struct {
	Pixel mercator.Point
	Geo   mercator.LatLng
}

// Calibration is an immutable two-point pixel <-> geographic mapping.
type Calibration struct {
	p1, p2 Pair

	dx, dy     float64 // pixel deltas between the two pairs
	dLat, dLng float64 // geographic deltas between the two pairs
}

// New derives a calibration from two correspondences. The pixels must differ
// in both x and y, and the geographic points in both latitude and longitude;
// otherwise New fails with ErrDegenerate.
func New(p1, p2 Pair) (*Calibration, error) {
	for _, v := range []float64{
		p1.Pixel.X, p1.Pixel.Y, p1.Geo.Lat, p1.Geo.Lng,
		p2.Pixel.X, p2.Pixel.Y, p2.Geo.Lat, p2.Geo.Lng,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate", ErrDegenerate)
		}
	}
	c := &Calibration{
		p1:   p1,
		p2:   p2,
		dx:   p2.Pixel.X - p1.Pixel.X,
		dy:   p2.Pixel.Y - p1.Pixel.Y,
		dLat: p2.Geo.Lat - p1.Geo.Lat,
		dLng: p2.Geo.Lng - p1.Geo.Lng,
	}
	if c.dx == 0 || c.dy == 0 {
		return nil, fmt.Errorf("%w: pixels (%v, %v) and (%v, %v) share an axis",
			ErrDegenerate, p1.Pixel.X, p1.Pixel.Y, p2.Pixel.X, p2.Pixel.Y)
	}
	if c.dLat == 0 || c.dLng == 0 {
		return nil, fmt.Errorf("%w: points %v and %v share an axis", ErrDegenerate, p1.Geo, p2.Geo)
	}
	return c, nil
}

// Pairs returns the reference points the calibration was built from.
func (c *Calibration) Pairs() (Pair, Pair) {
	return c.p1, c.p2
}

// LatScale returns degrees of latitude per pixel along y.
func (c *Calibration) LatScale() float64 { return c.dLat / c.dy }

// LngScale returns degrees of longitude per pixel along x.
func (c *Calibration) LngScale() float64 { return c.dLng / c.dx }

func (c *Calibration) PixelToGeo(p mercator.Point) mercator.LatLng {
	// multiply before dividing so exact fractions stay exact
	return mercator.LatLng{
		Lat: c.p1.Geo.Lat + (p.Y-c.p1.Pixel.Y)*c.dLat/c.dy,
		Lng: c.p1.Geo.Lng + (p.X-c.p1.Pixel.X)*c.dLng/c.dx,
	}
}

func (c *Calibration) GeoToPixel(ll mercator.LatLng) mercator.Point {
	return mercator.Point{
		X: c.p1.Pixel.X + (ll.Lng-c.p1.Geo.Lng)*c.dx/c.dLng,
		Y: c.p1.Pixel.Y + (ll.Lat-c.p1.Geo.Lat)*c.dy/c.dLat,
	}
}
