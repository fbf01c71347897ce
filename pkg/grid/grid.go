// Package grid quantizes skew coordinates to X5 hex cells and produces the
// center and outline of a cell.
//
// Hex centers sit on the integer points of the skew lattice. Inside one unit
// parallelogram (x = frac(beta), y = frac(alpha)) the corners are the
// candidate centers, as (di, dj) offsets from the floor cell:
//
//	A = (0,0)  B = (0,1)  C = (1,0)  D = (1,1)
//
// and the parallelogram is cut into four regions by the diagonal AH (y = x)
// and the anti-diagonal (x + y = 1). Each region touches exactly two hexes,
// separated by one of the boundary lines AB, FA, GH or HJ.
package grid

import (
	"math"

	"github.com/x5geo/x5-index/pkg/geom"
	"github.com/x5geo/x5-index/pkg/skew"
)

// DefaultOffset keeps every cell address inside the default band non-negative.
const DefaultOffset = 13034

type Cell struct {
	I int `json:"i"` // alpha axis
	J int `json:"j"` // beta axis
}

type Grid struct {
	skew.Params
	Offset int
}

func Default() Grid { return Grid{Params: skew.Default(), Offset: DefaultOffset} }

// boundary tests; a strictly positive value selects the first candidate.
func ab(x, y float64) float64 { return -0.5*x - y + 0.5 }
func ah(x, y float64) float64 { return x - y }
func hj(x, y float64) float64 { return -2*x - y + 2 }
func fa(x, y float64) float64 { return -2*x - y + 1 }
func gh(x, y float64) float64 { return -0.5*x - y + 1 }

// SkewToCell returns the cell containing (alpha, beta). It is total: every
// point of the plane belongs to exactly one cell, with points on a shared
// edge attributed to the side where the boundary test is not positive.
func (g Grid) SkewToCell(alpha, beta float64) Cell {
	fi, fj := math.Floor(alpha), math.Floor(beta)
	x, y := beta-fj, alpha-fi

	var di, dj int
	lower := 1-x-y > 0
	switch {
	case ah(x, y) > 0 && lower: // I: A | B
		if fa(x, y) <= 0 {
			dj = 1
		}
	case ah(x, y) > 0: // II: B | D
		dj = 1
		if gh(x, y) <= 0 {
			di = 1
		}
	case lower: // III: A | C
		if ab(x, y) <= 0 {
			di = 1
		}
	default: // IV: C | D
		di = 1
		if hj(x, y) <= 0 {
			dj = 1
		}
	}
	return Cell{
		I: int(fi) + di + g.Offset,
		J: int(fj) + dj + g.Offset,
	}
}

// LatLonToCell wraps the point into the band and quantizes it.
func (g Grid) LatLonToCell(lat, lon float64) Cell {
	return g.SkewToCell(g.ToSkew(lat, lon))
}

func (g Grid) skewOf(c Cell) (alpha, beta float64) {
	return float64(c.I - g.Offset), float64(c.J - g.Offset)
}

// LatticeCenter returns the cell center with longitude wrapped. A cell on the
// band edge keeps its latitude up to a cell beyond ±MaxLat instead of jumping
// to the opposite edge; centers further out wrap like FromSkew.
func (g Grid) LatticeCenter(c Cell) (lat, lon float64) {
	v := g.Displace(g.skewOf(c))
	lat = v.Y
	if math.Abs(lat) > g.MaxLat+g.Step {
		lat = g.WrapLat(lat)
	}
	return lat, skew.WrapLon(v.X)
}

// CellToLatLon returns the center of the cell clamped into the band. An edge
// cell's lattice center overshoots by less than half a cell, so clamping only
// moves it closer to every in-band point of the cell.
func (g Grid) CellToLatLon(c Cell) (lat, lon float64) {
	lat, lon = g.LatticeCenter(c)
	return math.Max(-g.MaxLat, math.Min(g.MaxLat, lat)), lon
}

// hexCorners are (dAlpha, dBeta) offsets of the six corners, counter-clockwise
// in (lon, lat) starting at the rightmost one.
var hexCorners = [6][2]float64{
	{1.0 / 3, 1.0 / 3},
	{-1.0 / 3, 2.0 / 3},
	{-2.0 / 3, 1.0 / 3},
	{-1.0 / 3, -1.0 / 3},
	{1.0 / 3, -2.0 / 3},
	{2.0 / 3, -1.0 / 3},
}

// LatLon is a geographic vertex in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CellToHexVertices returns the six corners of the cell, each wrapped
// individually into the band.
func (g Grid) CellToHexVertices(c Cell) [6]LatLon {
	a, b := g.skewOf(c)
	var out [6]LatLon
	for k, d := range hexCorners {
		lat, lon := g.FromSkew(a+d[0], b+d[1])
		out[k] = LatLon{Lat: lat, Lon: lon}
	}
	return out
}

// HexOutline returns the corners as planar (lon, lat) points relative to the
// lattice center, so cells straddling the antimeridian or a band edge stay
// convex.
func (g Grid) HexOutline(c Cell) []geom.Vec {
	lat, lon := g.LatticeCenter(c)
	center := geom.V(lon, lat)
	out := make([]geom.Vec, len(hexCorners))
	for k, d := range hexCorners {
		out[k] = center.Add(g.Displace(d[0], d[1]))
	}
	return out
}
