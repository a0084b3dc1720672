package viewport_test

import (
	"image"
	"math"
	"testing"

	"github.com/eak1mov/go-flightmap/calib"
	"github.com/eak1mov/go-flightmap/mercator"
	"github.com/eak1mov/go-flightmap/tile"
	"github.com/eak1mov/go-flightmap/viewport"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var screenSize = image.Pt(800, 600)

func newViewport(t *testing.T, zoom int) viewport.Viewport {
	t.Helper()
	vp, err := viewport.New(mercator.LatLng{Lat: 37.7749, Lng: -122.4194}, zoom, screenSize)
	require.NoError(t, err)
	return vp
}

// degreesPerPixel bounds the error introduced by integer pixel rounding.
func degreesPerPixel(zoom int) float64 {
	return 360 / mercator.WorldSize(zoom)
}

func TestNew(t *testing.T) {
	vp := newViewport(t, 12)
	require.Equal(t, 12, vp.Zoom)

	r := viewport.NewResolver()
	ll, err := r.ScreenToGeo(image.Pt(400, 300), vp)
	require.NoError(t, err)
	require.InDelta(t, 37.7749, ll.Lat, degreesPerPixel(12))
	require.InDelta(t, -122.4194, ll.Lng, degreesPerPixel(12))

	vp, err = viewport.New(mercator.LatLng{Lat: 89, Lng: 0}, 25, screenSize)
	require.NoError(t, err)
	require.Equal(t, viewport.MaxZoom, vp.Zoom)
	require.Equal(t, mercator.MaxLatitude, vp.Center.Lat)
}

func TestScreenGeoRoundTrip(t *testing.T) {
	r := viewport.NewResolver()
	vp := newViewport(t, 15)
	for _, screen := range []image.Point{{0, 0}, {400, 300}, {799, 599}, {-50, 1000}} {
		ll, err := r.ScreenToGeo(screen, vp)
		require.NoError(t, err)
		got, err := r.GeoToScreen(ll, vp)
		require.NoError(t, err)
		require.Equal(t, screen, got)
	}
}

func TestZoomToPoint(t *testing.T) {
	r := viewport.NewResolver()
	for _, tc := range []struct {
		zoom, delta int
		anchor      image.Point
	}{
		{12, 1, image.Pt(400, 300)},
		{12, 1, image.Pt(37, 521)},
		{12, -1, image.Pt(700, 20)},
		{5, 3, image.Pt(100, 100)},
		{18, 1, image.Pt(0, 0)},
	} {
		vp := newViewport(t, tc.zoom)
		before, err := r.ScreenToGeo(tc.anchor, vp)
		require.NoError(t, err)

		zoomed, err := r.Zoom(tc.delta, tc.anchor, vp)
		require.NoError(t, err)
		require.Equal(t, tc.zoom+tc.delta, zoomed.Zoom)

		after, err := r.ScreenToGeo(tc.anchor, zoomed)
		require.NoError(t, err)
		tolerance := degreesPerPixel(zoomed.Zoom)
		require.InDeltaf(t, before.Lat, after.Lat, tolerance, "lat under %v", tc.anchor)
		require.InDeltaf(t, before.Lng, after.Lng, tolerance, "lng under %v", tc.anchor)
	}
}

func TestZoomClamp(t *testing.T) {
	r := viewport.NewResolver()

	vp := newViewport(t, viewport.MaxZoom)
	got, err := r.Zoom(1, image.Pt(10, 10), vp)
	require.NoError(t, err)
	if diff := cmp.Diff(vp, got); diff != "" {
		t.Errorf("Zoom past MaxZoom changed viewport (-want+got):\n%v", diff)
	}

	vp = newViewport(t, 3)
	got, err = r.Zoom(-10, image.Pt(400, 300), vp)
	require.NoError(t, err)
	require.Equal(t, viewport.MinZoom, got.Zoom)
}

func TestZoomKeepsCenterPosition(t *testing.T) {
	r := viewport.NewResolver()
	vp := newViewport(t, 10)
	center := image.Pt(screenSize.X/2, screenSize.Y/2)

	zoomed, err := r.Zoom(2, center, vp)
	require.NoError(t, err)
	require.InDelta(t, vp.Center.Lat, zoomed.Center.Lat, degreesPerPixel(10))
	require.InDelta(t, vp.Center.Lng, zoomed.Center.Lng, degreesPerPixel(10))
}

func TestPan(t *testing.T) {
	r := viewport.NewResolver()
	vp := newViewport(t, 14)
	ll, err := r.ScreenToGeo(image.Pt(100, 100), vp)
	require.NoError(t, err)

	moved, err := r.Pan(30, -20, vp)
	require.NoError(t, err)
	got, err := r.GeoToScreen(ll, moved)
	require.NoError(t, err)
	require.Equal(t, image.Pt(130, 80), got)
	require.Less(t, moved.Center.Lng, vp.Center.Lng)
}

func TestCalibrationCycle(t *testing.T) {
	r := viewport.NewResolver()
	vp := viewport.Viewport{Zoom: 10}
	projected, err := r.ScreenToGeo(image.Pt(50, 50), vp)
	require.NoError(t, err)

	state, err := r.SetCalibrationPoint(image.Pt(0, 0), mercator.LatLng{Lat: 0, Lng: 0}, vp)
	require.NoError(t, err)
	require.Equal(t, viewport.Pending, state)
	require.Nil(t, r.Calibration())

	// still projecting while only one point is known
	ll, err := r.ScreenToGeo(image.Pt(50, 50), vp)
	require.NoError(t, err)
	require.Equal(t, projected, ll)

	state, err = r.SetCalibrationPoint(image.Pt(100, 100), mercator.LatLng{Lat: 1, Lng: 1}, vp)
	require.NoError(t, err)
	require.Equal(t, viewport.Calibrated, state)

	ll, err = r.ScreenToGeo(image.Pt(50, 50), vp)
	require.NoError(t, err)
	require.Equal(t, mercator.LatLng{Lat: 0.5, Lng: 0.5}, ll)
	p, err := r.GeoToScreen(mercator.LatLng{Lat: 0.5, Lng: 0.5}, vp)
	require.NoError(t, err)
	require.Equal(t, image.Pt(50, 50), p)

	state, err = r.SetCalibrationPoint(image.Pt(7, 7), mercator.LatLng{Lat: 3, Lng: 3}, vp)
	require.NoError(t, err)
	require.Equal(t, viewport.Uncalibrated, state)
	ll, err = r.ScreenToGeo(image.Pt(50, 50), vp)
	require.NoError(t, err)
	require.Equal(t, projected, ll)
}

func TestCalibrationDegenerateSecondPoint(t *testing.T) {
	r := viewport.NewResolver()
	vp := viewport.Viewport{Zoom: 10, Pan: image.Pt(1000, 2000)}

	_, err := r.SetCalibrationPoint(image.Pt(0, 0), mercator.LatLng{Lat: 0, Lng: 0}, vp)
	require.NoError(t, err)

	state, err := r.SetCalibrationPoint(image.Pt(0, 50), mercator.LatLng{Lat: 1, Lng: 1}, vp)
	require.ErrorIs(t, err, calib.ErrDegenerate)
	require.Equal(t, viewport.Pending, state)
	require.Equal(t, viewport.Pending, r.State())

	state, err = r.SetCalibrationPoint(image.Pt(100, 100), mercator.LatLng{Lat: 1, Lng: 1}, vp)
	require.NoError(t, err)
	require.Equal(t, viewport.Calibrated, state)

	// calibration points are stored in world pixels, so panning keeps them attached
	moved := vp
	moved.Pan = moved.Pan.Add(image.Pt(50, 50))
	ll, err := r.ScreenToGeo(image.Pt(0, 0), moved)
	require.NoError(t, err)
	require.Equal(t, mercator.LatLng{Lat: 0.5, Lng: 0.5}, ll)

	zoomed, err := r.Zoom(1, image.Pt(10, 10), vp)
	require.NoError(t, err)
	require.Equal(t, vp.Pan, zoomed.Pan)
	require.Equal(t, 11, zoomed.Zoom)

	r.ResetCalibration()
	require.Equal(t, viewport.Uncalibrated, r.State())
}

func TestGeoToScreenDomain(t *testing.T) {
	r := viewport.NewResolver()
	_, err := r.GeoToScreen(mercator.LatLng{Lat: 90, Lng: 0}, newViewport(t, 5))
	require.ErrorIs(t, err, mercator.ErrDomain)
}

func TestVisibleTiles(t *testing.T) {
	vp := viewport.Viewport{Zoom: 3, Pan: image.Pt(300, 10)}
	ids := viewport.VisibleTiles(vp, image.Pt(256, 256))
	want := []tile.ID{
		{X: 1, Y: 0, Z: 3}, {X: 2, Y: 0, Z: 3},
		{X: 1, Y: 1, Z: 3}, {X: 2, Y: 1, Z: 3},
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("VisibleTiles mismatch (-want+got):\n%v", diff)
	}
	require.Equal(t, image.Pt(-44, -10), vp.TileScreenOrigin(ids[0]))

	// the whole world at zoom 1 on a large screen scrolled off the top-left
	vp = viewport.Viewport{Zoom: 1, Pan: image.Pt(-100, -100)}
	require.Len(t, viewport.VisibleTiles(vp, image.Pt(2000, 2000)), 4)

	vp = viewport.Viewport{Zoom: 2, Pan: image.Pt(5000, 0)}
	require.Empty(t, viewport.VisibleTiles(vp, screenSize))

	for _, id := range viewport.VisibleTiles(newViewport(t, 17), screenSize) {
		require.True(t, id.Valid())
	}
	require.False(t, math.IsNaN(newViewport(t, 17).Center.Lat))
}

func TestPanPastWorldEdge(t *testing.T) {
	r := viewport.NewResolver()
	vp, err := viewport.New(mercator.LatLng{Lat: 10, Lng: 179.9}, 3, screenSize)
	require.NoError(t, err)

	for range 3 {
		vp, err = r.Pan(-2000, 0, vp)
		require.NoError(t, err)
	}
	_, err = r.Zoom(1, image.Pt(10, 10), vp)
	require.NoError(t, err)
}
