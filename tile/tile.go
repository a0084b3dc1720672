// Package tile provides tile addressing for the slippy-map tile pyramid and
// the storage interfaces shared by tile stores.
package tile

import (
	"errors"
	"fmt"
)

// MaxZoom is the deepest zoom level an ID can address.
const MaxZoom = 31

var ErrInvalidID = errors.New("flightmap: invalid tile index")

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

// NewID validates signed coordinates and converts them to an ID.
// Coordinates outside [0, 2^z) are rejected with ErrInvalidID.
func NewID(z, x, y int) (ID, error) {
	if z < 0 || z > MaxZoom {
		return ID{}, fmt.Errorf("%w: zoom %d out of range [0, %d]", ErrInvalidID, z, MaxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return ID{}, fmt.Errorf("%w: (%d, %d) out of range [0, %d) at zoom %d", ErrInvalidID, x, y, n, z)
	}
	return ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}, nil
}

func (t ID) Valid() bool {
	return t.Z <= MaxZoom && uint64(t.X) < 1<<t.Z && uint64(t.Y) < 1<<t.Z
}

// Check returns ErrInvalidID when t is outside the pyramid.
func (t ID) Check() error {
	if !t.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidID, t)
	}
	return nil
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Writer defines an interface for writing tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the tileset, calling the visitor for each.
	// Order of tiles is implementation-defined.
	VisitTiles(visitor func(ID, []byte) error) error
}

// IDVisitor visits tile ids without loading tile data.
type IDVisitor interface {
	VisitIDs(visitor func(ID) error) error
}
