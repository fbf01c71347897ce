package grid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/x5geo/x5-index/pkg/geom"
)

func TestCenter_QuantizesToItself(t *testing.T) {
	g := Default()
	cells := []Cell{
		{I: 13034, J: 13034},
		{I: 20000, J: 15000},
		{I: 1000, J: 25000},
		{I: 14000, J: 12000},
	}
	for _, c := range cells {
		lat, lon := g.CellToLatLon(c)
		if got := g.LatLonToCell(lat, lon); got != c {
			t.Fatalf("center of %+v (%v,%v) quantized to %+v", c, lat, lon, got)
		}
	}
}

func TestOrigin_IsOffsetCell(t *testing.T) {
	g := Default()
	if got := g.LatLonToCell(0, 0); got != (Cell{I: DefaultOffset, J: DefaultOffset}) {
		t.Fatalf("origin cell=%+v", got)
	}
}

func TestAddresses_NonNegativeAcrossBand(t *testing.T) {
	g := Default()
	for lat := -70.0; lat < 70; lat += 2.5 {
		for lon := -180.0; lon < 180; lon += 5 {
			c := g.LatLonToCell(lat, lon)
			if c.I < 0 || c.J < 0 || c.I >= 1<<16 || c.J >= 1<<16 {
				t.Fatalf("cell %+v for (%v,%v) outside 16-bit range", c, lat, lon)
			}
		}
	}
}

// insideHex reports whether p is inside (or on) the counter-clockwise ring.
func insideHex(ring []geom.Vec, p geom.Vec) bool {
	for k := range ring {
		if geom.Orient(ring[k], ring[(k+1)%len(ring)], p) < -1e-12 {
			return false
		}
	}
	return true
}

func TestSkewToCell_PointLiesInReturnedHex(t *testing.T) {
	g := Default()
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 20000; n++ {
		alpha := rng.Float64()*40 - 20
		beta := rng.Float64()*40 - 20
		c := g.SkewToCell(alpha, beta)

		center := g.Displace(float64(c.I-g.Offset), float64(c.J-g.Offset))
		ring := make([]geom.Vec, 0, 6)
		for _, d := range hexCorners {
			ring = append(ring, center.Add(g.Displace(d[0], d[1])))
		}
		p := g.Displace(alpha, beta)
		if !insideHex(ring, p) {
			t.Fatalf("point (a=%v,b=%v) assigned to %+v but lies outside its hex", alpha, beta, c)
		}
	}
}

func TestSkewToCell_RegionCandidates(t *testing.T) {
	g := Grid{Offset: 0}
	cases := []struct {
		name        string
		alpha, beta float64
		want        Cell
	}{
		{"near A", 0.05, 0.05, Cell{0, 0}},
		{"region I, B side", 0.1, 0.6, Cell{0, 1}},
		{"region II, D side", 0.9, 0.95, Cell{1, 1}},
		{"region II, B side", 0.3, 0.9, Cell{0, 1}},
		{"region III, C side", 0.6, 0.1, Cell{1, 0}},
		{"region IV, C side", 0.95, 0.3, Cell{1, 0}},
		{"negative coordinates", -0.05, -0.05, Cell{0, 0}},
		{"exact lattice point", 3, -2, Cell{3, -2}},
	}
	for _, c := range cases {
		if got := g.SkewToCell(c.alpha, c.beta); got != c.want {
			t.Fatalf("%s: got %+v want %+v", c.name, got, c.want)
		}
	}
}

func TestSkewToCell_SharedEdgeHasOneOwner(t *testing.T) {
	g := Grid{Offset: 0}
	// y = x past the (1/3,1/3) corner is the B|C edge; the strict AB test gives it to C.
	if got := g.SkewToCell(0.4, 0.4); got != (Cell{1, 0}) {
		t.Fatalf("diagonal point between B and C owned by %+v", got)
	}
	// on the AH diagonal inside A's hex the point stays with A
	if got := g.SkewToCell(0.2, 0.2); got != (Cell{0, 0}) {
		t.Fatalf("diagonal point inside A owned by %+v", got)
	}
}

func TestCellToHexVertices_SixDistinctCounterClockwise(t *testing.T) {
	g := Default()
	c := g.LatLonToCell(48.8566, 2.3522)
	vs := g.CellToHexVertices(c)

	seen := map[LatLon]struct{}{}
	ring := make([]geom.Vec, 0, 6)
	for _, v := range vs {
		seen[v] = struct{}{}
		ring = append(ring, geom.V(v.Lon, v.Lat))
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct vertices, got %d", len(seen))
	}
	if a := geom.PolygonArea(ring); a <= 0 {
		t.Fatalf("hex must be counter-clockwise, area=%v", a)
	}
	// rightmost first
	for k := 1; k < 6; k++ {
		if ring[k].X > ring[0].X {
			t.Fatalf("vertex %d is right of vertex 0", k)
		}
	}
	// a cell's corners are one step wide and half a step tall around the center
	lat, lon := g.CellToLatLon(c)
	if math.Abs(ring[0].X-lon-g.Step) > 1e-9 || math.Abs(ring[0].Y-lat) > 1e-9 {
		t.Fatalf("rightmost corner %v not at center+(step,0) from (%v,%v)", ring[0], lon, lat)
	}
}

func TestHexOutline_ConvexAcrossAntimeridian(t *testing.T) {
	g := Default()
	c := g.LatLonToCell(0, 179.999)
	ring := g.HexOutline(c)
	if a := geom.PolygonArea(ring); a <= 0 {
		t.Fatalf("outline must stay counter-clockwise across the antimeridian, area=%v", a)
	}
}

func TestCellToLatLon_BandEdgesStayOnTheirSide(t *testing.T) {
	g := Default()
	lons := []float64{-180, -179.999, -90.0003, 0, 45.12345, 179.999, 180}
	for _, edge := range []float64{g.MaxLat, -g.MaxLat} {
		for k := 0; k <= 20; k++ {
			// walk inwards from the edge across half a cell
			lat := edge - math.Copysign(float64(k)*g.Step/40, edge)
			for _, lon := range lons {
				c := g.LatLonToCell(lat, lon)
				cLat, _ := g.CellToLatLon(c)
				if cLat < -g.MaxLat || cLat > g.MaxLat {
					t.Fatalf("center lat %v of (%v,%v) outside the band", cLat, lat, lon)
				}
				if math.Abs(cLat-lat) > g.Step {
					t.Fatalf("(%v,%v) decodes to lat %v on the far side", lat, lon, cLat)
				}
				lcLat, _ := g.LatticeCenter(c)
				if math.Abs(lcLat-lat) > g.Step {
					t.Fatalf("(%v,%v) lattice center lat %v", lat, lon, lcLat)
				}
			}
		}
	}
}

func TestHexOutline_ConvexOnBandEdge(t *testing.T) {
	g := Default()
	c := g.LatLonToCell(70, 179.999)
	ring := g.HexOutline(c)
	if a := geom.PolygonArea(ring); a <= 0 {
		t.Fatalf("outline must stay counter-clockwise on the band edge, area=%v", a)
	}
	for _, v := range ring {
		if v.Y < 69 {
			t.Fatalf("edge cell corner %v wrapped to the other edge", v)
		}
	}
}
