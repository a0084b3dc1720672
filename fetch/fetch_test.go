package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eak1mov/go-flightmap/fetch"
	"github.com/eak1mov/go-flightmap/tile"
	"github.com/stretchr/testify/require"
)

func TestProviderURL(t *testing.T) {
	tileID := tile.ID{X: 3, Y: 5, Z: 3}
	for _, tc := range []struct {
		name     string
		provider fetch.Provider
		key      string
		want     string
	}{
		{"bing without key", fetch.Bing, "", "https://t0.tiles.virtualearth.net/tiles/a213.jpeg?g=1&n=z"},
		{"bing with key", fetch.Bing, "s3cr3t", "https://t0.tiles.virtualearth.net/tiles/a213.jpeg?g=1&n=z&key=s3cr3t"},
		{"osm", fetch.OSM, "", "https://tile.openstreetmap.org/3/3/5.png"},
		{"osm ignores key", fetch.OSM, "k", "https://tile.openstreetmap.org/3/3/5.png"},
		{
			"key placeholder",
			fetch.Provider{Template: "https://maps.example.com/{z}/{x}/{y}.png?apikey={key}", RequiresKey: true},
			"a b",
			"https://maps.example.com/3/3/5.png?apikey=a+b",
		},
		{
			"appended as first parameter",
			fetch.Provider{Template: "https://maps.example.com/{q}", KeyParam: "token"},
			"t",
			"https://maps.example.com/213?token=t",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.provider.URL(tileID, tc.key)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestProviderURLErrors(t *testing.T) {
	p := fetch.Provider{Template: "https://maps.example.com/{z}/{x}/{y}.png?apikey={key}", RequiresKey: true}
	_, err := p.URL(tile.ID{X: 0, Y: 0, Z: 1}, "")
	require.ErrorIs(t, err, fetch.ErrMissingKey)

	_, err = fetch.OSM.URL(tile.ID{X: 4, Y: 0, Z: 2}, "")
	require.ErrorIs(t, err, tile.ErrInvalidID)
}

func TestLookupProvider(t *testing.T) {
	p, err := fetch.LookupProvider("bing")
	require.NoError(t, err)
	require.Equal(t, "jpeg", p.Extension())

	_, err = fetch.LookupProvider("nope")
	require.ErrorIs(t, err, fetch.ErrUnknownProvider)

	require.Equal(t, "jpeg", fetch.Provider{}.Extension())
	require.Equal(t, "png", fetch.Provider{Ext: ".png"}.Extension())
}

func TestRedact(t *testing.T) {
	u, err := fetch.Bing.URL(tile.ID{X: 1, Y: 0, Z: 1}, "abc/+=")
	require.NoError(t, err)
	require.NotContains(t, fetch.Redact(u, "abc/+="), "abc")
	require.Equal(t, "x", fetch.Redact("x", ""))
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != fetch.UserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("tile-bytes"))
		case "/empty":
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher()
	ctx := context.Background()

	data, err := f.Fetch(ctx, server.URL+"/ok")
	require.NoError(t, err)
	require.Equal(t, []byte("tile-bytes"), data)

	for path, want := range map[string]error{
		"/missing":   fetch.ErrNotFound,
		"/empty":     fetch.ErrNotFound,
		"/gone":      fetch.ErrNotFound,
		"/forbidden": fetch.ErrTransient,
		"/busy":      fetch.ErrTransient,
		"/broken":    fetch.ErrTransient,
	} {
		_, err := f.Fetch(ctx, server.URL+path)
		require.Truef(t, errors.Is(err, want), "Fetch(%v) = %v, want %v", path, err, want)

		var fetchErr *fetch.Error
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, server.URL+path, fetchErr.URL)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.Fetch(cancelled, server.URL+"/ok")
	require.ErrorIs(t, err, fetch.ErrTransient)
	require.ErrorIs(t, err, context.Canceled)
}
