// Package export renders cells and their regions for visualisation: a plain
// triangle list and GeoJSON built with orb.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/x5geo/x5-index/pkg/geom"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/subdiv"
	"github.com/x5geo/x5-index/pkg/x5"
)

// Triangles returns the vertex triples of every region at level 1..3 of hex,
// in flat order.
func Triangles(hex []geom.Vec, level int) ([][]geom.Vec, error) {
	if level < 1 || level > subdiv.MaxLevel {
		return nil, fmt.Errorf("%w: triangle level %d outside [1,%d]", subdiv.ErrRegion, level, subdiv.MaxLevel)
	}
	regions := subdiv.AtLevel(level)
	out := make([][]geom.Vec, 0, len(regions))
	for _, r := range regions {
		vs, err := r.Vertices(hex)
		if err != nil {
			return nil, err
		}
		out = append(out, vs)
	}
	return out, nil
}

// WriteTriangles writes Triangles as [[{"x":..,"y":..}, ...], ...].
func WriteTriangles(w io.Writer, hex []geom.Vec, level int) error {
	tris, err := Triangles(hex, level)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tris)
}

// Ring closes pts into an orb ring, x as longitude.
func Ring(pts []geom.Vec) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// HexFeature is the cell outline as a polygon Feature carrying the cell's
// token, indices and center.
func HexFeature(x *x5.Index, c grid.Cell) (*geojson.Feature, error) {
	token, err := gpspack.CellToken(c)
	if err != nil {
		return nil, err
	}
	lat, lon := x.Grid().CellToLatLon(c)

	f := geojson.NewFeature(orb.Polygon{Ring(x.HexOf(c))})
	f.Properties["token"] = token
	f.Properties["i"] = c.I
	f.Properties["j"] = c.J
	f.Properties["lat"] = lat
	f.Properties["lon"] = lon
	if x.HasVocabulary() {
		if name, err := x.Name(c); err == nil {
			f.Properties["name"] = name
		}
	}
	return f, nil
}

// RegionFeature is one region of c as a polygon Feature.
func RegionFeature(x *x5.Index, c grid.Cell, r subdiv.Region) (*geojson.Feature, error) {
	vs, err := x.RegionVertices(c, r)
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(orb.Polygon{Ring(vs)})
	f.ID = strconv.Itoa(r.Flat())
	f.Properties["region"] = r.Flat()
	f.Properties["level"] = r.Level()
	f.Properties["path"] = r.Path()
	return f, nil
}

// RegionsFeatureCollection holds every region of c, the hex first.
func RegionsFeatureCollection(x *x5.Index, c grid.Cell) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for r := subdiv.Root; r.Valid(); r++ {
		f, err := RegionFeature(x, c, r)
		if err != nil {
			return nil, err
		}
		fc.Append(f)
	}
	return fc, nil
}
