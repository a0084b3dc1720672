package viewport

import (
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/eak1mov/go-flightmap/calib"
	"github.com/eak1mov/go-flightmap/mercator"
)

// CalibrationState is the position of a Resolver in the calibration cycle
// Uncalibrated -> Pending -> Calibrated -> Uncalibrated.
type CalibrationState int

const (
	Uncalibrated CalibrationState = iota
	// Pending has the first reference point and waits for the second.
	Pending
	Calibrated
)

func (s CalibrationState) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case Pending:
		return "pending"
	case Calibrated:
		return "calibrated"
	}
	return "unknown"
}

// Resolver converts between screen pixels and geographic coordinates,
// using the Web Mercator projection unless a two-point calibration is
// active. It is safe for concurrent use.
type Resolver struct {
	logger *slog.Logger

	mu          sync.RWMutex
	state       CalibrationState
	first       calib.Pair
	calibration *calib.Calibration
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) State() CalibrationState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Calibration returns the active calibration, or nil in projection mode.
func (r *Resolver) Calibration() *calib.Calibration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calibration
}

// ScreenToGeo returns the geographic coordinate under a screen pixel.
func (r *Resolver) ScreenToGeo(screen image.Point, vp Viewport) (mercator.LatLng, error) {
	r.mu.RLock()
	c := r.calibration
	r.mu.RUnlock()
	return worldToGeo(c, vp.ScreenToWorld(screen), vp.Zoom)
}

// GeoToScreen returns the screen pixel at which ll is drawn.
func (r *Resolver) GeoToScreen(ll mercator.LatLng, vp Viewport) (image.Point, error) {
	r.mu.RLock()
	c := r.calibration
	r.mu.RUnlock()
	world, err := geoToWorld(c, ll, vp.Zoom)
	if err != nil {
		return image.Point{}, err
	}
	return world.Round().Sub(vp.Pan), nil
}

func worldToGeo(c *calib.Calibration, p mercator.Point, zoom int) (mercator.LatLng, error) {
	if c != nil {
		return c.PixelToGeo(p), nil
	}
	return mercator.WorldPixelToGeo(p, zoom)
}

func geoToWorld(c *calib.Calibration, ll mercator.LatLng, zoom int) (mercator.Point, error) {
	if c != nil {
		return c.GeoToPixel(ll), nil
	}
	return mercator.GeoToWorldPixel(ll, zoom)
}

// SetCalibrationPoint advances the calibration cycle. The first call records
// a reference point, the second validates the pair and switches to calibrated
// mode, the third discards the calibration. A degenerate second point fails
// with calib.ErrDegenerate and keeps the first point, so only the second
// point has to be picked again.
func (r *Resolver) SetCalibrationPoint(screen image.Point, ll mercator.LatLng, vp Viewport) (CalibrationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := calib.Pair{Pixel: vp.ScreenToWorld(screen), Geo: ll}
	switch r.state {
	case Uncalibrated:
		r.first = p
		r.state = Pending
		r.logger.Info("calibration point recorded", slog.Any("pixel", p.Pixel), slog.String("geo", ll.String()))
	case Pending:
		c, err := calib.New(r.first, p)
		if err != nil {
			r.logger.Warn("calibration rejected", slog.Any("error", err))
			return r.state, err
		}
		r.calibration = c
		r.state = Calibrated
		r.logger.Info("calibration active",
			slog.Float64("lat_scale", c.LatScale()),
			slog.Float64("lng_scale", c.LngScale()))
	case Calibrated:
		r.resetLocked()
	}
	return r.state, nil
}

// ResetCalibration returns to projection mode.
func (r *Resolver) ResetCalibration() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Resolver) resetLocked() {
	r.first = calib.Pair{}
	r.calibration = nil
	r.state = Uncalibrated
	r.logger.Info("calibration cleared")
}

// Zoom changes the zoom level by delta, clamped to [MinZoom, MaxZoom], and
// moves the view so that the point under anchor stays under anchor.
//
// A calibrated map is drawn at a fixed scale: only the zoom level changes.
func (r *Resolver) Zoom(delta int, anchor image.Point, vp Viewport) (Viewport, error) {
	r.mu.RLock()
	c := r.calibration
	r.mu.RUnlock()

	zoom := clampZoom(vp.Zoom + delta)
	if c != nil || zoom == vp.Zoom {
		vp.Zoom = zoom
		return vp, nil
	}

	// world pixels scale by 2 per zoom level in Web Mercator
	scale := math.Exp2(float64(zoom - vp.Zoom))
	anchorWorld := vp.ScreenToWorld(anchor).Mul(scale)
	pan := anchorWorld.Sub(mercator.FromImagePoint(anchor)).Round()

	center, err := r.movedCenter(vp, pan, zoom)
	if err != nil {
		return vp, err
	}
	r.logger.Debug("zoom", slog.Int("from", vp.Zoom), slog.Int("to", zoom), slog.Any("anchor", anchor))
	return Viewport{Center: center, Zoom: zoom, Pan: pan}, nil
}

// Pan moves the view content by (dx, dy) screen pixels, as a drag gesture does.
func (r *Resolver) Pan(dx, dy int, vp Viewport) (Viewport, error) {
	pan := vp.Pan.Sub(image.Pt(dx, dy))
	center, err := r.movedCenter(vp, pan, vp.Zoom)
	if err != nil {
		return vp, err
	}
	return Viewport{Center: center, Zoom: vp.Zoom, Pan: pan}, nil
}

// movedCenter keeps vp.Center at the same screen position after the view
// changes to pan and zoom and returns the coordinate now shown there.
func (r *Resolver) movedCenter(vp Viewport, pan image.Point, zoom int) (mercator.LatLng, error) {
	r.mu.RLock()
	c := r.calibration
	r.mu.RUnlock()

	center := vp.Center
	if c == nil {
		// a view panned past the world edge can have an off-world center
		center.Lat = mercator.ClampLatitude(center.Lat)
		center.Lng = max(-180, min(center.Lng, 180))
	}
	world, err := geoToWorld(c, center, vp.Zoom)
	if err != nil {
		return mercator.LatLng{}, err
	}
	screen := world.Sub(mercator.FromImagePoint(vp.Pan))
	return worldToGeo(c, screen.Add(mercator.FromImagePoint(pan)), zoom)
}
