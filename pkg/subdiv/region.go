package subdiv

import (
	"errors"
	"fmt"
)

// Region addresses one node of the fixed three-level refinement of a hex:
// 0 is the hex, 1..6 the first-level triangles, 7..30 the second level and
// 31..126 the third. The flat integer, the path and the vertex triple are
// three views of the same value.
type Region int

const (
	Root       Region = 0
	NumRegions        = 127
	MaxLevel          = 3
)

// first flat index of each level
var levelStart = [MaxLevel + 2]int{0, 1, 7, 31, NumRegions}

var ErrRegion = errors.New("invalid region")

func (r Region) Valid() bool { return r >= 0 && int(r) < NumRegions }

func (r Region) Flat() int { return int(r) }

// Level is 0 for the hex and 1..3 for the triangle levels; -1 if invalid.
func (r Region) Level() int {
	if !r.Valid() {
		return -1
	}
	for l := MaxLevel; l > 0; l-- {
		if int(r) >= levelStart[l] {
			return l
		}
	}
	return 0
}

// Ordinal is the position of r among its siblings, in emission order.
func (r Region) Ordinal() int {
	switch l := r.Level(); l {
	case 0:
		return 0
	case 1:
		return int(r) - 1
	default:
		return (int(r) - levelStart[l]) % 4
	}
}

func (r Region) Parent() Region {
	switch l := r.Level(); l {
	case -1, 0, 1:
		return Root
	default:
		return Region(levelStart[l-1] + (int(r)-levelStart[l])/4)
	}
}

// Child returns the n-th child in emission order; ok is false past the last
// level or for an out-of-range n.
func (r Region) Child(n int) (Region, bool) {
	l := r.Level()
	switch {
	case l < 0 || l == MaxLevel:
		return 0, false
	case l == 0:
		if n < 0 || n >= 6 {
			return 0, false
		}
		return Region(1 + n), true
	default:
		if n < 0 || n >= 4 {
			return 0, false
		}
		return Region(levelStart[l+1] + (int(r)-levelStart[l])*4 + n), true
	}
}

func (r Region) Children() []Region {
	var out []Region
	for n := 0; ; n++ {
		c, ok := r.Child(n)
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

// Path expands r into [0, l1, l2, l3], truncated at r's level.
func (r Region) Path() []int {
	if !r.Valid() {
		return nil
	}
	path := make([]int, r.Level()+1)
	for cur := r; ; cur = cur.Parent() {
		path[cur.Level()] = int(cur)
		if cur == Root {
			return path
		}
	}
}

func (r Region) String() string { return fmt.Sprintf("region(%d)", int(r)) }

// ExpandIndex converts a flat index into its path.
func ExpandIndex(flat int) ([]int, error) {
	r := Region(flat)
	if !r.Valid() {
		return nil, fmt.Errorf("%w: flat index %d outside [0,%d]", ErrRegion, flat, NumRegions-1)
	}
	return r.Path(), nil
}

// FlattenIndex converts a path back to the flat index, checking that every
// element is a child of the previous one.
func FlattenIndex(path []int) (int, error) {
	if len(path) == 0 || len(path) > MaxLevel+1 {
		return 0, fmt.Errorf("%w: path length %d", ErrRegion, len(path))
	}
	if path[0] != 0 {
		return 0, fmt.Errorf("%w: path must start at 0, got %d", ErrRegion, path[0])
	}
	for i := 1; i < len(path); i++ {
		r := Region(path[i])
		if r.Level() != i || r.Parent() != Region(path[i-1]) {
			return 0, fmt.Errorf("%w: %d is not a level-%d child of %d", ErrRegion, path[i], i, path[i-1])
		}
	}
	return path[len(path)-1], nil
}

// AtLevel lists the regions of level l in flat order; nil for an invalid level.
func AtLevel(l int) []Region {
	if l < 0 || l > MaxLevel {
		return nil
	}
	out := make([]Region, 0, levelStart[l+1]-levelStart[l])
	for r := levelStart[l]; r < levelStart[l+1]; r++ {
		out = append(out, Region(r))
	}
	return out
}
