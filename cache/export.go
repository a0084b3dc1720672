package cache

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/eak1mov/go-flightmap/tile"
)

// IDs returns the cached tiles in Hilbert curve order: lower zoom levels
// first, nearby tiles of a level close together.
func (c *Cache) IDs() ([]tile.ID, error) {
	var ids []tile.ID
	err := c.store.VisitIDs(func(tileID tile.ID) error {
		ids = append(ids, tileID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(ids, func(a, b tile.ID) int {
		return cmp.Compare(tile.HilbertCode(a), tile.HilbertCode(b))
	})
	return ids, nil
}

// Export writes every cached tile to w in IDs order and finalizes w.
// It returns the number of tiles written.
func (c *Cache) Export(w tile.Writer) (int, error) {
	ids, err := c.IDs()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, tileID := range ids {
		tileData, err := c.store.ReadTile(tileID)
		if err != nil {
			return n, err
		}
		if len(tileData) == 0 {
			continue
		}
		if err := w.WriteTile(tileID, tileData); err != nil {
			return n, err
		}
		n++
	}
	return n, w.Finalize()
}

// Import copies every tile visited by v into the cache and returns the
// number of tiles stored.
func (c *Cache) Import(v tile.Visitor) (int, error) {
	n := 0
	err := v.VisitTiles(func(tileID tile.ID, tileData []byte) error {
		if !tileID.Valid() || len(tileData) == 0 {
			return nil
		}
		if err := c.Put(tileID, tileData); err != nil {
			return err
		}
		n++
		return nil
	})
	if err == nil {
		c.logger.Info("tiles imported", slog.Int("count", n))
	}
	return n, err
}
