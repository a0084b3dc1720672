// Package mb reads and writes offline tile packs in the MBTiles format.
//
// The sqlite3 driver must be registered by the caller
// (e.g. import _ "github.com/mattn/go-sqlite3").
package mb

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/eak1mov/go-flightmap/tile"
)

const driverName = "sqlite3"

// tmsRow converts between XYZ rows and the TMS rows MBTiles stores.
// The conversion is its own inverse.
func tmsRow(z, y uint32) uint32 {
	return (1 << z) - 1 - y
}

// Metadata returns the MBTiles metadata describing a pack of the given
// tiles: bounds, center and zoom range.
func Metadata(name, format string, ids []tile.ID) map[string]string {
	m := map[string]string{
		"name":   name,
		"format": format,
		"type":   "baselayer",
	}
	if len(ids) == 0 {
		return m
	}

	zooms := make([]uint32, len(ids))
	for i, id := range ids {
		zooms[i] = id.Z
	}
	minZoom, maxZoom := slices.Min(zooms), slices.Max(zooms)

	b := tile.UnionBound(ids)
	c := b.Center()
	m["bounds"] = fmt.Sprintf("%s,%s,%s,%s", ftoa(b.Left()), ftoa(b.Bottom()), ftoa(b.Right()), ftoa(b.Top()))
	m["center"] = fmt.Sprintf("%s,%s,%d", ftoa(c.Lon()), ftoa(c.Lat()), minZoom)
	m["minzoom"] = strconv.FormatUint(uint64(minZoom), 10)
	m["maxzoom"] = strconv.FormatUint(uint64(maxZoom), 10)
	return m
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
