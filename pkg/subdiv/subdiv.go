// Package subdiv refines a hex into six triangles and each triangle into four,
// down to three levels, and locates points inside that hierarchy.
//
// Numbering is only defined relative to a canonical hex: counter-clockwise,
// starting at the rightmost vertex (lowest y on ties). Locate and
// VerticesForIndex canonicalize their input; SubdivideHex expects it done.
package subdiv

import (
	"errors"
	"fmt"
	"math"

	"github.com/x5geo/x5-index/pkg/geom"
)

var ErrShape = errors.New("hex must have exactly 6 finite vertices")

// CanonicalOrder returns a copy of vs rotated so the rightmost vertex (lowest
// y on ties) comes first. A clockwise input is reversed before rotating, so
// region numbers of a clockwise hex follow its counter-clockwise twin rather
// than the raw vertex order.
func CanonicalOrder(vs []geom.Vec) []geom.Vec {
	out := make([]geom.Vec, len(vs))
	copy(out, vs)
	if geom.PolygonArea(out) < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if len(out) == 0 {
		return out
	}
	first := 0
	for i, v := range out {
		f := out[first]
		if v.X > f.X || (v.X == f.X && v.Y < f.Y) {
			first = i
		}
	}
	return append(out[first:], out[:first]...)
}

func checkHex(hex []geom.Vec) error {
	if len(hex) != 6 {
		return fmt.Errorf("%w: got %d vertices", ErrShape, len(hex))
	}
	for i, v := range hex {
		if !v.IsFinite() {
			return fmt.Errorf("%w: vertex %d is %v", ErrShape, i, v)
		}
	}
	return nil
}

// SubdivideHex appends the centroid as vertex 6 and emits the fan
// (i, i+1 mod 6, 6); triangle n is region n+1.
func SubdivideHex(hex []geom.Vec) ([]geom.Vec, [6][3]int, error) {
	var tris [6][3]int
	if err := checkHex(hex); err != nil {
		return nil, tris, err
	}
	verts := make([]geom.Vec, 0, 7)
	verts = append(verts, hex...)
	verts = append(verts, geom.Centroid(hex))
	for i := range tris {
		tris[i] = [3]int{i, (i + 1) % 6, 6}
	}
	return verts, tris, nil
}

// SubdivideTriangle appends the edge midpoints m01, m12, m20 as vertices 3..5
// and emits the central triangle followed by the three corner triangles.
func SubdivideTriangle(tri geom.Triangle) ([]geom.Vec, [4][3]int) {
	verts := []geom.Vec{
		tri[0], tri[1], tri[2],
		tri[0].Mid(tri[1]),
		tri[1].Mid(tri[2]),
		tri[2].Mid(tri[0]),
	}
	return verts, [4][3]int{
		{3, 4, 5},
		{0, 3, 5},
		{3, 1, 4},
		{5, 4, 2},
	}
}

// PointInTriangle is a sign test on the three edge orientations. With
// includeBoundary, points on an edge or vertex count as inside; without it
// they are outside. Degenerate triangles contain nothing.
func PointInTriangle(p, a, b, c geom.Vec, includeBoundary bool) bool {
	if geom.Orient(a, b, c) == 0 {
		return false
	}
	d1 := geom.Orient(p, a, b)
	d2 := geom.Orient(p, b, c)
	d3 := geom.Orient(p, c, a)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	if includeBoundary {
		return !(neg && pos)
	}
	return (d1 > 0 && d2 > 0 && d3 > 0) || (d1 < 0 && d2 < 0 && d3 < 0)
}

func pick(verts []geom.Vec, t [3]int) geom.Triangle {
	return geom.Triangle{verts[t[0]], verts[t[1]], verts[t[2]]}
}

// Locate finds the region path [0, l1, l2, l3] of p in hex. ok is false when
// p is outside the hex. Candidates are tried in emission order and the first
// inclusive match wins, so shared edges go to the earlier triangle. Below
// level 1 a point that rounding leaves on no child goes to the child with the
// nearest centroid, so a located point always resolves to level 3.
func Locate(p geom.Vec, hex []geom.Vec) (Region, bool, error) {
	return locate(p, hex, false)
}

// Snap is Locate for a point known to belong to hex, such as one quantized to
// the hex's cell: a point just outside every level-1 triangle is assigned to
// the nearest one instead of being rejected.
func Snap(p geom.Vec, hex []geom.Vec) (Region, error) {
	r, _, err := locate(p, hex, true)
	return r, err
}

func locate(p geom.Vec, hex []geom.Vec, snap bool) (Region, bool, error) {
	if err := checkHex(hex); err != nil {
		return 0, false, err
	}
	verts, tris, err := SubdivideHex(CanonicalOrder(hex))
	if err != nil {
		return 0, false, err
	}

	cands := make([]geom.Triangle, len(tris))
	for n, t := range tris {
		cands[n] = pick(verts, t)
	}
	n, inside := choose(p, cands)
	if !inside && !snap {
		return 0, false, nil
	}
	region, _ := Root.Child(n)
	cur := cands[n]

	for region.Level() < MaxLevel {
		sv, st := SubdivideTriangle(cur)
		kids := make([]geom.Triangle, len(st))
		for k, t := range st {
			kids[k] = pick(sv, t)
		}
		n, _ = choose(p, kids)
		region, _ = region.Child(n)
		cur = kids[n]
	}
	return region, true, nil
}

// choose returns the first of tris containing p, boundary included. When none
// does it returns the one whose centroid is nearest and inside is false.
func choose(p geom.Vec, tris []geom.Triangle) (n int, inside bool) {
	best, bestD := 0, math.Inf(1)
	for k, t := range tris {
		if PointInTriangle(p, t[0], t[1], t[2], true) {
			return k, true
		}
		d := p.Sub(geom.Centroid(t[:]))
		if dd := d.X*d.X + d.Y*d.Y; dd < bestD {
			best, bestD = k, dd
		}
	}
	return best, false
}

// VerticesForIndex rebuilds the vertices of a region by replaying the same
// subdivision steps Locate takes: the canonical hex for region 0, otherwise
// the triangle.
func VerticesForIndex(flat int, hex []geom.Vec) ([]geom.Vec, error) {
	r := Region(flat)
	if !r.Valid() {
		return nil, fmt.Errorf("%w: flat index %d", ErrRegion, flat)
	}
	return r.Vertices(hex)
}

// Vertices is the geometric view of r for the given hex.
func (r Region) Vertices(hex []geom.Vec) ([]geom.Vec, error) {
	if err := checkHex(hex); err != nil {
		return nil, err
	}
	canon := CanonicalOrder(hex)
	path := r.Path()
	if path == nil {
		return nil, fmt.Errorf("%w: %d", ErrRegion, int(r))
	}
	if len(path) == 1 {
		return canon, nil
	}
	verts, tris, err := SubdivideHex(canon)
	if err != nil {
		return nil, err
	}
	cur := pick(verts, tris[Region(path[1]).Ordinal()])
	for _, k := range path[2:] {
		sv, st := SubdivideTriangle(cur)
		cur = pick(sv, st[Region(k).Ordinal()])
	}
	return cur[:], nil
}
