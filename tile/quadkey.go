package tile

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidQuadKey = errors.New("flightmap: invalid quadkey")

// QuadKey encodes the tile as a Bing-style quadkey: one digit per zoom level,
// most significant first, where bit 0 of a digit is the x bit and bit 1 is
// the y bit. The root tile (zoom 0) encodes to the empty string.
func (t ID) QuadKey() string {
	var sb strings.Builder
	sb.Grow(int(t.Z))
	for i := t.Z; i > 0; i-- {
		digit := byte('0')
		mask := uint32(1) << (i - 1)
		if t.X&mask != 0 {
			digit++
		}
		if t.Y&mask != 0 {
			digit += 2
		}
		sb.WriteByte(digit)
	}
	return sb.String()
}

// ParseQuadKey decodes a quadkey produced by ID.QuadKey.
func ParseQuadKey(quadKey string) (ID, error) {
	if len(quadKey) > MaxZoom {
		return ID{}, fmt.Errorf("%w: %q longer than %d digits", ErrInvalidQuadKey, quadKey, MaxZoom)
	}
	t := ID{Z: uint32(len(quadKey))}
	for i := t.Z; i > 0; i-- {
		mask := uint32(1) << (i - 1)
		switch quadKey[t.Z-i] {
		case '0':
		case '1':
			t.X |= mask
		case '2':
			t.Y |= mask
		case '3':
			t.X |= mask
			t.Y |= mask
		default:
			return ID{}, fmt.Errorf("%w: digit %q in %q", ErrInvalidQuadKey, quadKey[t.Z-i], quadKey)
		}
	}
	return t, nil
}
