package x5

import (
	"errors"
	"fmt"
	"testing"

	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/geom"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/skew"
	"github.com/x5geo/x5-index/pkg/subdiv"
)

func words(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	v, err := codec.NewVocabulary(words("n", codec.MinNouns), words("a", codec.MinAdjectives))
	if err != nil {
		t.Fatalf("NewVocabulary: %v", err)
	}
	x, err := New(grid.Default(), v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return x
}

func TestName_RoundTripThroughCell(t *testing.T) {
	x := newIndex(t)
	for _, p := range [][2]float64{{59.3293, 18.0686}, {-22.9068, -43.1729}, {0, 0}} {
		c, err := x.Cell(p[0], p[1])
		if err != nil {
			t.Fatalf("Cell: %v", err)
		}
		name, err := x.Name(c)
		if err != nil {
			t.Fatalf("Name: %v", err)
		}
		got, ok, err := x.ParseName(name)
		if err != nil || !ok {
			t.Fatalf("ParseName(%q): ok=%v err=%v", name, ok, err)
		}
		if got != c {
			t.Fatalf("name %q resolved to %+v want %+v", name, got, c)
		}
	}
}

func TestParseName_MissAndMalformed(t *testing.T) {
	x := newIndex(t)
	if _, ok, err := x.ParseName("n1-zzz-n2"); ok || err != nil {
		t.Fatalf("unknown word: ok=%v err=%v", ok, err)
	}
	if _, _, err := x.ParseName("n1-a2"); !errors.Is(err, codec.ErrMalformedName) {
		t.Fatalf("malformed: err=%v", err)
	}
}

func TestNoVocabulary(t *testing.T) {
	x, err := New(grid.Default(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := x.Name(grid.Cell{I: 1, J: 1}); !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("Name err=%v", err)
	}
	if _, _, err := x.ParseName("a-b-c"); !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("ParseName err=%v", err)
	}
}

func TestNew_RejectsBadParams(t *testing.T) {
	if _, err := New(grid.Grid{Params: skew.Params{MaxLat: 70, Step: 0}}, nil); err == nil {
		t.Fatalf("expected error for zero step")
	}
}

func TestLocate_RegionContainsPoint(t *testing.T) {
	x := newIndex(t)
	pts := [][2]float64{
		{48.8566, 2.3522},
		{48.8571, 2.3519},
		{-33.8688, 151.2093},
		{10.0, 179.999},
		{-10.0, -179.999},
		{69.9999, 179.9999},
		{70, 12.3456},
		{-69.9999, -179.9999},
		{-70, 0.0012},
	}
	for _, p := range pts {
		addr, err := x.Locate(p[0], p[1])
		if err != nil {
			t.Fatalf("Locate(%v): %v", p, err)
		}
		if addr.Region.Level() != subdiv.MaxLevel {
			t.Fatalf("Locate(%v) stopped at level %d", p, addr.Region.Level())
		}
		tok, _ := x.Encoder().Encode(p[0], p[1])
		if addr.Token != tok {
			t.Fatalf("token %q want %q", addr.Token, tok)
		}

		vs, err := x.RegionVertices(addr.Cell, addr.Region)
		if err != nil {
			t.Fatalf("RegionVertices: %v", err)
		}
		cLat, cLon := x.Grid().CellToLatLon(addr.Cell)
		q := geom.V(cLon+skew.WrapLon(p[1]-cLon), cLat+(p[0]-cLat))
		if !subdiv.PointInTriangle(q, vs[0], vs[1], vs[2], true) {
			t.Fatalf("region %d of %+v does not contain %v", addr.Region, addr.Cell, p)
		}
	}
}

func TestLocate_DomainError(t *testing.T) {
	x := newIndex(t)
	if _, err := x.Locate(75, 0); err == nil {
		t.Fatalf("expected domain error")
	}
}
