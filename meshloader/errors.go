package meshloader

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collide/geometry"
)

// ErrResourceNotFound is wrapped by loaders that cannot locate a resource.
var ErrResourceNotFound = errors.New("mesh resource not found")

// NewUnhandledBVKindError is returned when a hierarchy of an unknown bounding volume kind is requested.
func NewUnhandledBVKindError(kind geometry.NodeType) error {
	return errors.Errorf("Unhandled bounding volume type %v", kind)
}

// NewResourceNotFoundError is returned for a path no loader knows.
func NewResourceNotFoundError(path string) error {
	return errors.Wrapf(ErrResourceNotFound, "%q", path)
}

// NewBadResourceError is returned when a resource cannot be decoded.
func NewBadResourceError(path, reason string) error {
	return errors.Errorf("cannot decode mesh %q: %s", path, reason)
}

// NewBadScaleError is returned for a scale that cannot key the cache.
func NewBadScaleError(scale r3.Vector) error {
	return errors.Errorf("invalid mesh scale %v", scale)
}
