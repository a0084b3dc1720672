package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterTiles returns an iterator over all tiles in the tileset.
// It yields tile IDs and their data. Iteration panics on unrecoverable errors.
func IterTiles(r Visitor) iter.Seq2[ID, []byte] {
	return func(yield func(ID, []byte) bool) {
		err := r.VisitTiles(func(tileID ID, tileData []byte) error {
			if !yield(tileID, tileData) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

func IterIDs(r IDVisitor) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		err := r.VisitIDs(func(tileID ID) error {
			if !yield(tileID) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

// Neighborhood returns the valid tiles of the square [x-r, x+r] x [y-r, y+r]
// around center, row by row, and the number of cells that fell outside the
// pyramid.
func Neighborhood(center ID, radius int) (ids []ID, skipped int) {
	if radius < 0 {
		radius = 0
	}
	z := int(center.Z)
	cx, cy := int(center.X), int(center.Y)
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			id, err := NewID(z, x, y)
			if err != nil {
				skipped++
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, skipped
}
