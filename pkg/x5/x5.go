// Package x5 ties the engine together: lat/lon -> cell -> token or name, and
// a point's region inside its cell's hex.
package x5

import (
	"errors"
	"fmt"

	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/geom"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/skew"
	"github.com/x5geo/x5-index/pkg/subdiv"
)

var ErrNoVocabulary = errors.New("no vocabulary configured")

type Index struct {
	enc   *gpspack.Encoder
	vocab *codec.Vocabulary
}

// New builds an index over g. vocab may be nil, in which case the naming
// operations fail with ErrNoVocabulary.
func New(g grid.Grid, vocab *codec.Vocabulary) (*Index, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("grid params: %w", err)
	}
	return &Index{enc: gpspack.New(g), vocab: vocab}, nil
}

func (x *Index) Grid() grid.Grid                          { return x.enc.Grid }
func (x *Index) Encoder() *gpspack.Encoder                { return x.enc }
func (x *Index) Vocabulary() *codec.Vocabulary            { return x.vocab }
func (x *Index) HasVocabulary() bool                      { return x.vocab != nil }
func (x *Index) Cell(lat, lon float64) (grid.Cell, error) { return x.enc.Cell(lat, lon) }

// Address is everything the index knows about one point.
type Address struct {
	Cell   grid.Cell     `json:"cell"`
	Packed uint32        `json:"packed"`
	Token  string        `json:"token"`
	Fields codec.Fields  `json:"fields"`
	Region subdiv.Region `json:"region"`
}

func (x *Index) Name(c grid.Cell) (string, error) {
	if x.vocab == nil {
		return "", ErrNoVocabulary
	}
	packed, err := codec.PackCell(c.I, c.J)
	if err != nil {
		return "", err
	}
	return x.vocab.FieldsToName(codec.SplitFields(packed))
}

// ParseName resolves a three-word name. ok is false for well-formed names
// made of unknown words.
func (x *Index) ParseName(name string) (c grid.Cell, ok bool, err error) {
	if x.vocab == nil {
		return grid.Cell{}, false, ErrNoVocabulary
	}
	f, ok, err := x.vocab.NameToFields(name)
	if err != nil || !ok {
		return grid.Cell{}, false, err
	}
	packed, err := codec.MergeFields(f)
	if err != nil {
		return grid.Cell{}, false, err
	}
	i, j := codec.UnpackCell(packed)
	return grid.Cell{I: i, J: j}, true, nil
}

// HexOf returns the cell outline in (lon, lat), unwrapped around the center.
func (x *Index) HexOf(c grid.Cell) []geom.Vec { return x.enc.Grid.HexOutline(c) }

// RegionVertices returns the outline of region r of cell c in (lon, lat).
func (x *Index) RegionVertices(c grid.Cell, r subdiv.Region) ([]geom.Vec, error) {
	return r.Vertices(x.HexOf(c))
}

// Locate resolves a point to its cell and to the level-3 region of that
// cell's hex containing it.
func (x *Index) Locate(lat, lon float64) (Address, error) {
	c, err := x.enc.Cell(lat, lon)
	if err != nil {
		return Address{}, err
	}
	packed, err := codec.PackCell(c.I, c.J)
	if err != nil {
		return Address{}, err
	}
	token, err := gpspack.CellToken(c)
	if err != nil {
		return Address{}, err
	}

	// lat is in the band and unwrapped, the same frame as the lattice center;
	// only longitude needs bringing next to a center across the antimeridian
	_, cLon := x.enc.Grid.LatticeCenter(c)
	p := geom.V(cLon+skew.WrapLon(lon-cLon), lat)
	region, err := subdiv.Snap(p, x.HexOf(c))
	if err != nil {
		return Address{}, err
	}
	return Address{
		Cell:   c,
		Packed: packed,
		Token:  token,
		Fields: codec.SplitFields(packed),
		Region: region,
	}, nil
}
