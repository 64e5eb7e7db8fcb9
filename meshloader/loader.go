// Package meshloader builds bounding volume hierarchies from mesh resources and shares them through a cache
// keyed by bounding volume kind, scale and path.
package meshloader

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/bvh"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
)

// Loader returns a hierarchy of the requested bounding volume kind over the mesh at path.
type Loader interface {
	Load(path string, scale r3.Vector, kind geometry.NodeType) (bvh.Hierarchy, error)
}

// MeshLoader decodes a resource and builds a fresh hierarchy on every call.
type MeshLoader struct {
	resources ResourceLoader
	logger    logging.Logger
}

// NewMeshLoader returns a loader reading meshes through resources.
func NewMeshLoader(resources ResourceLoader, logger logging.Logger) *MeshLoader {
	return &MeshLoader{resources: resources, logger: logger}
}

// Load implements Loader.
func (l *MeshLoader) Load(path string, scale r3.Vector, kind geometry.NodeType) (bvh.Hierarchy, error) {
	if math.IsNaN(scale.X) || math.IsNaN(scale.Y) || math.IsNaN(scale.Z) {
		return nil, NewBadScaleError(scale)
	}
	switch kind {
	case geometry.BVAABB:
		return load[bv.AABB](l, path, scale)
	case geometry.BVOBB:
		return load[bv.OBB](l, path, scale)
	case geometry.BVRSS:
		return load[bv.RSS](l, path, scale)
	case geometry.BVKIOS:
		return load[bv.KIOS](l, path, scale)
	case geometry.BVOBBRSS:
		return load[bv.OBBRSS](l, path, scale)
	case geometry.BVKDOP16:
		return load[bv.KDOP16](l, path, scale)
	case geometry.BVKDOP18:
		return load[bv.KDOP18](l, path, scale)
	case geometry.BVKDOP24:
		return load[bv.KDOP24](l, path, scale)
	default:
		return nil, NewUnhandledBVKindError(kind)
	}
}

func load[BV bv.Volume[BV]](l *MeshLoader, path string, scale r3.Vector) (bvh.Hierarchy, error) {
	vertices, triangles, err := l.resources.LoadResource(path, scale)
	if err != nil {
		return nil, errors.Wrapf(err, "loading mesh %q", path)
	}
	model, err := bvh.New[BV](vertices, triangles)
	if err != nil {
		return nil, errors.Wrapf(err, "building hierarchy for %q", path)
	}
	var zero BV
	l.logger.Debugw("mesh loaded", "path", path, "kind", zero.Kind(), "vertices", len(vertices), "triangles", len(triangles))
	return model, nil
}
