package mb_test

import (
	"maps"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-flightmap/mb"
	"github.com/eak1mov/go-flightmap/tile"
)

func TestWriterReader(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "pack.mbtiles")
	tiles := map[tile.ID][]byte{
		{X: 0, Y: 0, Z: 0}: []byte("tile000"),
		{X: 1, Y: 0, Z: 1}: []byte("tile101"),
		{X: 3, Y: 5, Z: 3}: []byte("tile353"),
	}
	ids := []tile.ID{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 3, Y: 5, Z: 3}}
	metadata := mb.Metadata("test", "png", ids)

	w, err := mb.NewWriter(filePath, mb.WithMetadata(metadata))
	require.NoError(t, err)
	for tileID, tileData := range tiles {
		require.NoError(t, w.WriteTile(tileID, tileData))
	}
	require.ErrorIs(t, w.WriteTile(tile.ID{X: 2, Y: 0, Z: 1}, []byte("x")), tile.ErrInvalidID)
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Close())

	r, err := mb.NewReader(filePath)
	require.NoError(t, err)
	defer r.Close()

	gotMetadata, err := r.ReadMetadata()
	require.NoError(t, err)
	if diff := cmp.Diff(metadata, gotMetadata); diff != "" {
		t.Errorf("ReadMetadata() mismatch (-want+got):\n%s", diff)
	}

	for tileID, tileData := range tiles {
		got, err := r.ReadTile(tileID)
		require.NoError(t, err)
		require.Equal(t, tileData, got, "ReadTile(%v)", tileID)
	}
	missing, err := r.ReadTile(tile.ID{X: 0, Y: 0, Z: 2})
	require.NoError(t, err)
	require.Empty(t, missing)

	if diff := cmp.Diff(tiles, maps.Collect(tile.IterTiles(r))); diff != "" {
		t.Errorf("VisitTiles() mismatch (-want+got):\n%s", diff)
	}
}

func TestWriterCloseWithoutFinalize(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "pack.mbtiles")
	w, err := mb.NewWriter(filePath)
	require.NoError(t, err)
	require.NoError(t, w.WriteTile(tile.ID{X: 0, Y: 0, Z: 0}, []byte("tile")))
	require.NoError(t, w.Close())

	r, err := mb.NewReader(filePath)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadTile(tile.ID{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMetadata(t *testing.T) {
	got := mb.Metadata("world", "jpeg", []tile.ID{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 0, Z: 3}})
	want := map[string]string{
		"name":    "world",
		"format":  "jpeg",
		"type":    "baselayer",
		"bounds":  "-180.000000,-85.051129,180.000000,85.051129",
		"minzoom": "1",
		"maxzoom": "3",
	}
	require.True(t, strings.HasSuffix(got["center"], ",1"), "center = %q", got["center"])
	delete(got, "center")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Metadata() mismatch (-want+got):\n%s", diff)
	}

	require.Len(t, mb.Metadata("empty", "png", nil), 3)
}
