// Package ingest turns raw point events into stored, addressed records.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/x5geo/x5-index/pkg/grid"
)

var ErrInvalidEvent = errors.New("invalid point event")

// PointEvent is the wire form of one position report.
type PointEvent struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	TS      time.Time `json:"ts"`
}

// Validate checks the envelope; the coordinate domain is left to the encoder.
func (e PointEvent) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("%w: version must be 1", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if math.IsNaN(e.Lat) || math.IsNaN(e.Lon) || math.IsInf(e.Lat, 0) || math.IsInf(e.Lon, 0) {
		return fmt.Errorf("%w: lat/lon must be finite", ErrInvalidEvent)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("%w: ts is required", ErrInvalidEvent)
	}
	return nil
}

// Record is what gets stored per id: the last accepted position and its
// address.
type Record struct {
	ID     string    `json:"id"`
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	TS     time.Time `json:"ts"`
	Token  string    `json:"token"`
	Name   string    `json:"name,omitempty"`
	Cell   grid.Cell `json:"cell"`
	Region int       `json:"region"`
	Path   []int     `json:"path"`
}
