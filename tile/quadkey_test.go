package tile_test

import (
	"errors"
	"testing"

	"github.com/eak1mov/go-flightmap/tile"
	"github.com/google/go-cmp/cmp"
)

func TestQuadKey(t *testing.T) {
	for _, tc := range []struct {
		tileID tile.ID
		want   string
	}{
		{tile.ID{X: 0, Y: 0, Z: 0}, ""},
		{tile.ID{X: 1, Y: 0, Z: 1}, "1"},
		{tile.ID{X: 0, Y: 1, Z: 1}, "2"},
		{tile.ID{X: 1, Y: 1, Z: 1}, "3"},
		{tile.ID{X: 3, Y: 5, Z: 3}, "213"},
		{tile.ID{X: 35210, Y: 21493, Z: 16}, "1202102332221212"},
	} {
		if got := tc.tileID.QuadKey(); got != tc.want {
			t.Errorf("%v.QuadKey() = %q, want = %q", tc.tileID, got, tc.want)
		}
		got, err := tile.ParseQuadKey(tc.want)
		if err != nil {
			t.Errorf("ParseQuadKey(%q) failed: %v", tc.want, err)
			continue
		}
		if diff := cmp.Diff(tc.tileID, got); diff != "" {
			t.Errorf("ParseQuadKey(%q) mismatch (-want+got):\n%v", tc.want, diff)
		}
	}
}

func TestQuadKeyBijection(t *testing.T) {
	for z := 1; z <= 8; z++ {
		for x := range 1 << z {
			for y := range 1 << z {
				tileID := tile.ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}
				quadKey := tileID.QuadKey()
				if len(quadKey) != z {
					t.Fatalf("len(%v.QuadKey()) = %v, want = %v", tileID, len(quadKey), z)
				}
				got, err := tile.ParseQuadKey(quadKey)
				if err != nil {
					t.Fatalf("ParseQuadKey(%q) failed: %v", quadKey, err)
				}
				if diff := cmp.Diff(tileID, got); diff != "" {
					t.Fatalf("ParseQuadKey(%v.QuadKey()) mismatch (-want+got):\n%v", tileID, diff)
				}
			}
		}
	}
	for z := 9; z <= 19; z++ {
		last := uint32(1<<z) - 1
		for _, tileID := range []tile.ID{
			{X: 0, Y: 0, Z: uint32(z)},
			{X: last, Y: last, Z: uint32(z)},
			{X: last / 3, Y: last / 7, Z: uint32(z)},
		} {
			got, err := tile.ParseQuadKey(tileID.QuadKey())
			if err != nil {
				t.Fatalf("ParseQuadKey failed: %v", err)
			}
			if diff := cmp.Diff(tileID, got); diff != "" {
				t.Errorf("ParseQuadKey(%v.QuadKey()) mismatch (-want+got):\n%v", tileID, diff)
			}
		}
	}
}

func TestParseQuadKeyErrors(t *testing.T) {
	for _, quadKey := range []string{"4", "12a", "01-", "00000000000000000000000000000000"} {
		if _, err := tile.ParseQuadKey(quadKey); !errors.Is(err, tile.ErrInvalidQuadKey) {
			t.Errorf("ParseQuadKey(%q) error = %v, want = %v", quadKey, err, tile.ErrInvalidQuadKey)
		}
	}
}
