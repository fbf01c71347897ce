// Package skew converts between lat/lon degrees and the skewed (alpha, beta)
// basis aligned with the two primary axes of the X5 hex lattice.
//
// One unit along alpha moves (1.5*step, -0.5*step) in (lon, lat); one unit
// along beta moves (1.5*step, 0.5*step). Latitude lives on a band of height
// 2*MaxLat and both axes wrap toroidally.
package skew

import (
	"errors"
	"fmt"
	"math"

	"github.com/x5geo/x5-index/pkg/geom"
)

const (
	DefaultMaxLat = 70.0
	DefaultStep   = 0.01
)

type Params struct {
	MaxLat float64 // band half-height, degrees
	Step   float64 // degrees per lattice unit
}

func Default() Params { return Params{MaxLat: DefaultMaxLat, Step: DefaultStep} }

func (p Params) Validate() error {
	if !(p.MaxLat > 0 && p.MaxLat <= 90) {
		return fmt.Errorf("max latitude %v out of (0,90]", p.MaxLat)
	}
	if !(p.Step > 0) || math.IsInf(p.Step, 0) {
		return errors.New("step must be a positive finite number")
	}
	return nil
}

// Wrap folds v into [lo, hi) with period hi-lo.
func Wrap(v, lo, hi float64) float64 {
	period := hi - lo
	r := math.Mod(v-lo, period)
	if r < 0 {
		r += period
	}
	return r + lo
}

func (p Params) WrapLat(lat float64) float64 { return Wrap(lat, -p.MaxLat, p.MaxLat) }

// NormLat leaves a latitude inside [-MaxLat, MaxLat] untouched and wraps any
// other, so a point on the top edge stays on the top edge.
func (p Params) NormLat(lat float64) float64 {
	if lat >= -p.MaxLat && lat <= p.MaxLat {
		return lat
	}
	return p.WrapLat(lat)
}

func WrapLon(lon float64) float64 { return Wrap(lon, -180, 180) }

func (p Params) alphaVec() geom.Vec { return geom.V(1.5*p.Step, -0.5*p.Step) }

func (p Params) betaVec() geom.Vec { return geom.V(1.5*p.Step, 0.5*p.Step) }

// ToSkew maps a geographic point into skew space, wrapping latitudes outside
// the band and longitudes outside [-180, 180).
func (p Params) ToSkew(lat, lon float64) (alpha, beta float64) {
	lat = p.NormLat(lat)
	lon = WrapLon(lon)
	s := p.Step / 2
	beta = (lat + lon/3) / (2 * s)
	alpha = lon/(3*s) - beta
	return alpha, beta
}

// FromSkew is the inverse of ToSkew; the result is wrapped back into the band.
func (p Params) FromSkew(alpha, beta float64) (lat, lon float64) {
	x := p.alphaVec().Scale(alpha).Add(p.betaVec().Scale(beta))
	return p.WrapLat(x.Y), WrapLon(x.X)
}

// Displace converts a skew-space displacement to a (lon, lat) displacement
// without wrapping.
func (p Params) Displace(dAlpha, dBeta float64) geom.Vec {
	return p.alphaVec().Scale(dAlpha).Add(p.betaVec().Scale(dBeta))
}
