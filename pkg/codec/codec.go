// Package codec packs X5 cell addresses into integers and renders them as
// three-word names.
//
// A packed index holds i in the high 16 bits and j in the low 16 bits. For
// naming it is re-split into a (11 bits, bits 21..31), b (10 bits, bits
// 11..20) and c (11 bits, bits 0..10).
package codec

import (
	"errors"
	"fmt"
)

const (
	CellBits = 16
	ABits    = 11
	BBits    = 10
	CBits    = 11

	cellMask = 1<<CellBits - 1
	aShift   = BBits + CBits
	bShift   = CBits
)

var ErrRange = errors.New("value out of range")

// PackCell combines a cell address into one integer.
func PackCell(i, j int) (uint32, error) {
	if i < 0 || i > cellMask {
		return 0, fmt.Errorf("%w: i=%d does not fit %d bits", ErrRange, i, CellBits)
	}
	if j < 0 || j > cellMask {
		return 0, fmt.Errorf("%w: j=%d does not fit %d bits", ErrRange, j, CellBits)
	}
	return uint32(i)<<CellBits | uint32(j), nil
}

func UnpackCell(x uint32) (i, j int) {
	return int(x >> CellBits), int(x & cellMask)
}

type Fields struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
	C uint32 `json:"c"`
}

func (f Fields) Validate() error {
	switch {
	case f.A >= 1<<ABits:
		return fmt.Errorf("%w: a=%d does not fit %d bits", ErrRange, f.A, ABits)
	case f.B >= 1<<BBits:
		return fmt.Errorf("%w: b=%d does not fit %d bits", ErrRange, f.B, BBits)
	case f.C >= 1<<CBits:
		return fmt.Errorf("%w: c=%d does not fit %d bits", ErrRange, f.C, CBits)
	}
	return nil
}

// SplitFields carves the naming fields out of a packed index. Every uint32
// splits into in-range fields, so there is nothing to check.
func SplitFields(x uint32) Fields {
	return Fields{
		A: x >> aShift,
		B: (x >> bShift) & (1<<BBits - 1),
		C: x & (1<<CBits - 1),
	}
}

func MergeFields(f Fields) (uint32, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f.A<<aShift | f.B<<bShift | f.C, nil
}
