package cache

import "github.com/eak1mov/go-flightmap/tile"

// Waiters returns the number of callers waiting for the fetch of a tile.
func Waiters(c *Cache, tileID tile.ID) int {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	if w, ok := c.waiting[tileID.String()]; ok {
		return w.n
	}
	return 0
}
