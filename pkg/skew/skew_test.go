package skew

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestRoundTrip_InsideDomain(t *testing.T) {
	p := Default()
	cases := []struct{ lat, lon float64 }{
		{0, 0},
		{37.7749, -122.4194},
		{-33.8688, 151.2093},
		{69.99, 179.99},
		{-69.99, -179.99},
		{12.5, 0.001},
	}
	for _, c := range cases {
		a, b := p.ToSkew(c.lat, c.lon)
		lat, lon := p.FromSkew(a, b)
		if math.Abs(lat-c.lat) > eps || math.Abs(lon-c.lon) > eps {
			t.Fatalf("round trip (%v,%v) -> (%v,%v) -> (%v,%v)", c.lat, c.lon, a, b, lat, lon)
		}
	}
}

func TestRoundTrip_WrapsOutsideBand(t *testing.T) {
	p := Default()
	// 75N is 5 degrees past the band edge, so it lands at -65.
	a, b := p.ToSkew(75, 190)
	lat, lon := p.FromSkew(a, b)
	if math.Abs(lat-(-65)) > eps || math.Abs(lon-(-170)) > eps {
		t.Fatalf("wrapped round trip got (%v,%v) want (-65,-170)", lat, lon)
	}
}

func TestToSkew_Formula(t *testing.T) {
	p := Params{MaxLat: 70, Step: 1}
	a, b := p.ToSkew(1, 3)
	// s=0.5: beta=(1+1)/1=2, alpha=3/1.5-2=0
	if math.Abs(b-2) > eps || math.Abs(a) > eps {
		t.Fatalf("got alpha=%v beta=%v want 0,2", a, b)
	}
}

func TestWrap(t *testing.T) {
	cases := []struct{ v, want float64 }{
		{180, -180},
		{-180, -180},
		{181, -179},
		{-181, 179},
		{540, -180},
		{45, 45},
	}
	for _, c := range cases {
		if got := WrapLon(c.v); math.Abs(got-c.want) > eps {
			t.Fatalf("WrapLon(%v)=%v want %v", c.v, got, c.want)
		}
	}
	if got := Default().WrapLat(71); math.Abs(got-(-69)) > eps {
		t.Fatalf("WrapLat(71)=%v want -69", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if err := (Params{MaxLat: 0, Step: 0.01}).Validate(); err == nil {
		t.Fatalf("expected error for zero max latitude")
	}
	if err := (Params{MaxLat: 70, Step: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative step")
	}
}

func TestNormLat_KeepsBandEdges(t *testing.T) {
	p := Default()
	cases := []struct{ in, want float64 }{
		{70, 70},
		{-70, -70},
		{69.9999, 69.9999},
		{71, -69},
		{-75, 65},
	}
	for _, c := range cases {
		if got := p.NormLat(c.in); math.Abs(got-c.want) > eps {
			t.Fatalf("NormLat(%v)=%v want %v", c.in, got, c.want)
		}
	}
	a1, b1 := p.ToSkew(70, 10)
	a2, b2 := p.ToSkew(-70, 10)
	if a1 == a2 && b1 == b2 {
		t.Fatalf("top and bottom edge must not share skew coordinates")
	}
}
