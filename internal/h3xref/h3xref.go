// Package h3xref relates X5 cells to H3 cells, for callers that already key
// data by H3.
package h3xref

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/skew"
	"github.com/x5geo/x5-index/pkg/x5"
)

var ErrResolution = errors.New("invalid H3 resolution")

// MaxCoveringRes bounds CrossRef. A default-grid hex already holds several
// thousand res-12 cells and roughly 400k at res 14.
const MaxCoveringRes = 12

type Mapper struct {
	idx *x5.Index
}

func New(idx *x5.Index) *Mapper { return &Mapper{idx: idx} }

// Ref pairs an X5 token with the H3 cell holding its center and the H3 cells
// whose centers fall inside its hex.
type Ref struct {
	Token    string   `json:"token"`
	Res      int      `json:"res"`
	H3       string   `json:"h3"`
	Covering []string `json:"covering"`
}

// CellFor returns the H3 cell containing the point.
func (m *Mapper) CellFor(lat, lon float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// CrossRef rejects res above MaxCoveringRes with ErrResolution.
func (m *Mapper) CrossRef(token string, res int) (Ref, error) {
	if err := validateRes(res); err != nil {
		return Ref{}, err
	}
	if res > MaxCoveringRes {
		return Ref{}, fmt.Errorf("%w: %d (covering allows at most %d)", ErrResolution, res, MaxCoveringRes)
	}
	_, c, err := gpspack.ParseToken(token)
	if err != nil {
		return Ref{}, err
	}
	canon, err := gpspack.CellToken(c)
	if err != nil {
		return Ref{}, err
	}
	lat, lon := m.idx.Grid().CellToLatLon(c)
	center, err := m.CellFor(lat, lon, res)
	if err != nil {
		return Ref{}, err
	}

	outline := m.idx.HexOf(c)
	loop := make(h3.GeoLoop, 0, len(outline))
	for _, v := range outline {
		loop = append(loop, h3.LatLng{Lat: v.Y, Lng: skew.WrapLon(v.X)})
	}
	covering, err := polyfill(loop, res)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Token: canon, Res: res, H3: center, Covering: covering}, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("%w: %d (must be 0..15)", ErrResolution, res)
	}
	return nil
}

// polyfill returns unique cells sorted for determinism.
func polyfill(outer h3.GeoLoop, res int) ([]string, error) {
	indexes, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}
	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
