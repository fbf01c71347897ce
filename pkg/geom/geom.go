// Package geom holds the planar primitives shared by the grid and the
// subdivision engine. Coordinates are abstract x/y; callers decide whether
// they mean lon/lat degrees or something else.
package geom

import "math"

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Mid returns the midpoint of v and o.
func (v Vec) Mid(o Vec) Vec { return Vec{(v.X + o.X) / 2, (v.Y + o.Y) / 2} }

// Cross is the z component of the 3D cross product.
func (v Vec) Cross(o Vec) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Orient returns twice the signed area of (a, b, c): positive for a
// counter-clockwise turn, negative for clockwise, zero when collinear.
func Orient(a, b, c Vec) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func SignedArea(a, b, c Vec) float64 { return Orient(a, b, c) / 2 }

// PolygonArea is the shoelace area; positive when the ring is counter-clockwise.
func PolygonArea(ring []Vec) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var s float64
	for i := range ring {
		s += ring[i].Cross(ring[(i+1)%n])
	}
	return s / 2
}

// Centroid is the arithmetic mean of the points.
func Centroid(pts []Vec) Vec {
	if len(pts) == 0 {
		return Vec{}
	}
	var c Vec
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

type Triangle [3]Vec

func (t Triangle) Area() float64 { return SignedArea(t[0], t[1], t[2]) }

func (t Triangle) Degenerate() bool { return Orient(t[0], t[1], t[2]) == 0 }
