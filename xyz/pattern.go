// Package xyz stores tiles as individual files with paths derived from a
// pattern such as "/cache/z{z}/tile_{x}_{y}.jpeg".
package xyz

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-flightmap/tile"
)

var ErrInvalidPattern = errors.New("flightmap: invalid file pattern")

var placeholders = []string{"{x}", "{y}", "{z}"}

func validatePattern(pattern string) error {
	for _, p := range placeholders {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, tileID tile.ID) string {
	return strings.NewReplacer(
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
	).Replace(pattern)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(pattern)
	for _, p := range placeholders {
		name := p[1:2]
		expr = strings.ReplaceAll(expr, regexp.QuoteMeta(p), "(?P<"+name+">\\d+)")
	}
	re, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

func parsePath(re *regexp.Regexp, filePath string) (tile.ID, bool) {
	matches := re.FindStringSubmatch(filePath)
	if matches == nil {
		return tile.ID{}, false
	}
	var coords [3]uint64
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.ParseUint(matches[re.SubexpIndex(name)], 10, 32)
		if err != nil {
			return tile.ID{}, false
		}
		coords[i] = v
	}
	tileID := tile.ID{X: uint32(coords[0]), Y: uint32(coords[1]), Z: uint32(coords[2])}
	return tileID, tileID.Valid()
}
