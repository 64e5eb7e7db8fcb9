package spatialhash

import (
	"github.com/pkg/errors"

	"go.viam.com/collide/bv"
)

// ErrZeroTableSize is returned when a dense table is initialized or used without buckets.
var ErrZeroTableSize = errors.New("hash table size must be positive")

// NewBadCellSizeError is returned for a grid hash with a non-positive cell size.
func NewBadCellSizeError(size float64) error {
	return errors.Errorf("grid cell size must be positive, got %v", size)
}

// NewTooManyCellsError is returned when cells of the given size would split limit into more than MaxCells
// cells.
func NewTooManyCellsError(limit bv.AABB, size float64) error {
	ext := limit.Max.Sub(limit.Min)
	return errors.Errorf("grid cell size %v splits a %vx%vx%v region into more than %d cells", size, ext.X, ext.Y, ext.Z, MaxCells)
}
