// Package gpspack turns a lat/lon pair into a short base-36 token naming the
// X5 cell that contains it, and back. Tokens are lossy: decoding returns the
// cell center.
package gpspack

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/golang/geo/s2"

	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/grid"
)

const (
	EarthRadiusMeters = 6371000.0
	DefaultSigma      = 1.5 // meters
	tokenBase         = 36
)

var (
	ErrDomain = errors.New("coordinate outside domain")
	ErrToken  = errors.New("invalid token")
)

type Encoder struct {
	Grid grid.Grid
}

func New(g grid.Grid) *Encoder { return &Encoder{Grid: g} }

func Default() *Encoder { return New(grid.Default()) }

// Validate rejects points outside [-MaxLat, MaxLat] x [-180, 180].
func (e *Encoder) Validate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -e.Grid.MaxLat || lat > e.Grid.MaxLat {
		return fmt.Errorf("%w: latitude %v not in [%v,%v]", ErrDomain, lat, -e.Grid.MaxLat, e.Grid.MaxLat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v not in [-180,180]", ErrDomain, lon)
	}
	return nil
}

// Cell validates the point and returns its cell.
func (e *Encoder) Cell(lat, lon float64) (grid.Cell, error) {
	if err := e.Validate(lat, lon); err != nil {
		return grid.Cell{}, err
	}
	return e.Grid.LatLonToCell(lat, lon), nil
}

func (e *Encoder) Encode(lat, lon float64) (string, error) {
	c, err := e.Cell(lat, lon)
	if err != nil {
		return "", err
	}
	return CellToken(c)
}

// CellToken renders a cell address as a token.
func CellToken(c grid.Cell) (string, error) {
	x, err := codec.PackCell(c.I, c.J)
	if err != nil {
		return "", fmt.Errorf("pack cell %+v: %w", c, err)
	}
	return strconv.FormatUint(uint64(x), tokenBase), nil
}

// ParseToken returns the packed index and cell of a token.
func ParseToken(token string) (uint32, grid.Cell, error) {
	x, err := strconv.ParseUint(token, tokenBase, 32)
	if err != nil {
		return 0, grid.Cell{}, fmt.Errorf("%w: %q: %v", ErrToken, token, err)
	}
	i, j := codec.UnpackCell(uint32(x))
	return uint32(x), grid.Cell{I: i, J: j}, nil
}

// Decode returns the center of the token's cell.
func (e *Encoder) Decode(token string) (lat, lon float64, err error) {
	_, c, err := ParseToken(token)
	if err != nil {
		return 0, 0, err
	}
	lat, lon = e.Grid.CellToLatLon(c)
	return lat, lon, nil
}

// Distance is the great-circle distance in meters between two token centers.
func (e *Encoder) Distance(a, b string) (float64, error) {
	lat1, lon1, err := e.Decode(a)
	if err != nil {
		return 0, err
	}
	lat2, lon2, err := e.Decode(b)
	if err != nil {
		return 0, err
	}
	return Haversine(lat1, lon1, lat2, lon2), nil
}

// WithinTolerance reports whether two tokens are closer than 3 sigma. With
// measurement noise this misses about 1% of true matches.
func (e *Encoder) WithinTolerance(a, b string, sigma float64) (bool, error) {
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	d, err := e.Distance(a, b)
	if err != nil {
		return false, err
	}
	return d < 3*sigma, nil
}

// Haversine returns the spherical distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p := s2.LatLngFromDegrees(lat1, lon1)
	q := s2.LatLngFromDegrees(lat2, lon2)
	return p.Distance(q).Radians() * EarthRadiusMeters
}
