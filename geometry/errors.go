package geometry

import (
	"github.com/pkg/errors"
)

// ErrIndexOutOfRange is wrapped by every bounds error.
var ErrIndexOutOfRange = errors.New("index out of range")

// NewIndexOutOfRangeError is returned by accessors when i is not a valid index into a collection of n items.
func NewIndexOutOfRangeError(what string, i, n int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "%s index %d with %d %ss", what, i, n, what)
}

// NewBadGeometryDimensionsError is returned when a shape is constructed with negative or non-finite dimensions.
func NewBadGeometryDimensionsError(shape Geometry) error {
	return errors.Errorf("invalid dimension(s) for geometry type %s", shape.NodeType())
}

// NewUnknownNodeTypeError is returned when a registry code name cannot be parsed.
func NewUnknownNodeTypeError(name string) error {
	return errors.Errorf("unknown geometry node type %q", name)
}
