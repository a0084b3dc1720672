package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/eak1mov/go-flightmap/tile"
)

var (
	ErrMissingKey      = errors.New("flightmap: provider requires an API key")
	ErrUnknownProvider = errors.New("flightmap: unknown tile provider")
)

// Provider describes how to build tile URLs for a tile server.
//
// Template placeholders: {z}, {x}, {y} (XYZ scheme), {q} (quadkey) and
// {key} (API key).
type Provider struct {
	Name     string
	Template string
	// KeyParam is the query parameter the key is appended as when the
	// template has no {key} placeholder.
	KeyParam    string
	RequiresKey bool
	// Ext is the file extension used for cached tiles.
	Ext string
}

var (
	Bing = Provider{
		Name:     "bing",
		Template: "https://t0.tiles.virtualearth.net/tiles/a{q}.jpeg?g=1&n=z",
		KeyParam: "key",
		Ext:      "jpeg",
	}
	OSM = Provider{
		Name:     "osm",
		Template: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Ext:      "png",
	}
)

var providers = []Provider{Bing, OSM}

// LookupProvider returns the built-in provider with the given name.
func LookupProvider(name string) (Provider, error) {
	i := slices.IndexFunc(providers, func(p Provider) bool { return p.Name == name })
	if i < 0 {
		return Provider{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return providers[i], nil
}

// URL returns the tile URL for tileID. A non-empty key is substituted for
// {key} or appended as KeyParam; the key itself is not validated.
func (p Provider) URL(tileID tile.ID, key string) (string, error) {
	if err := tileID.Check(); err != nil {
		return "", err
	}
	if p.RequiresKey && key == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, p.Name)
	}

	hasKeyPlaceholder := strings.Contains(p.Template, "{key}")
	u := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{q}", tileID.QuadKey(),
		"{key}", url.QueryEscape(key),
	).Replace(p.Template)

	if key != "" && !hasKeyPlaceholder && p.KeyParam != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + url.QueryEscape(p.KeyParam) + "=" + url.QueryEscape(key)
	}
	return u, nil
}

// Redact hides key in a URL before it is logged.
func Redact(u, key string) string {
	if key == "" {
		return u
	}
	u = strings.ReplaceAll(u, url.QueryEscape(key), "[REDACTED]")
	return strings.ReplaceAll(u, key, "[REDACTED]")
}

// Extension returns the cache file extension, "jpeg" when unset.
func (p Provider) Extension() string {
	if p.Ext == "" {
		return "jpeg"
	}
	return strings.TrimPrefix(p.Ext, ".")
}
