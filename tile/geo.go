package tile

import (
	"github.com/google/hilbert"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// HilbertCode returns the PMTiles tile code of t: tiles of lower zoom levels
// first, tiles of one level ordered along a Hilbert curve.
func HilbertCode(t ID) uint64 {
	h, _ := hilbert.NewHilbert(1 << t.Z)
	tileCode, _ := h.MapInverse(int(t.X), int(t.Y))

	tilesCount := (1<<(t.Z*2) - 1) / 3
	return uint64(tileCode + tilesCount)
}

func (t ID) MapTile() maptile.Tile {
	return maptile.New(t.X, t.Y, maptile.Zoom(t.Z))
}

// Bound returns the geographic bounds of the tile, lon/lat ordered.
func (t ID) Bound() orb.Bound {
	return t.MapTile().Bound()
}

// UnionBound returns the bounds covering all ids. The bound is empty when ids is.
func UnionBound(ids []ID) orb.Bound {
	if len(ids) == 0 {
		return orb.Bound{}
	}
	b := ids[0].Bound()
	for _, id := range ids[1:] {
		b = b.Union(id.Bound())
	}
	return b
}

// Cover returns all tiles at zoom z intersecting the bound, row by row.
func Cover(b orb.Bound, z uint32) []ID {
	west, east := clampLon(b.Min.Lon()), clampLon(b.Max.Lon())
	minTile := maptile.At(orb.Point{west, b.Max.Lat()}, maptile.Zoom(z))
	maxTile := maptile.At(orb.Point{east, b.Min.Lat()}, maptile.Zoom(z))

	// longitude 180 lands one past the last column
	last := uint32(1<<z) - 1
	minX, maxX := min(minTile.X, maxTile.X, last), min(max(minTile.X, maxTile.X), last)
	minY, maxY := min(minTile.Y, maxTile.Y, last), min(max(minTile.Y, maxTile.Y), last)

	var ids []ID
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			ids = append(ids, ID{X: x, Y: y, Z: z})
		}
	}
	return ids
}

func clampLon(lon float64) float64 {
	return max(-180, min(lon, 180))
}
