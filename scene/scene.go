package scene

import (
	"context"
	"math"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/collide/broadphase"
	"go.viam.com/collide/bv"
	"go.viam.com/collide/collision"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/meshloader"
	"go.viam.com/collide/octree"
	"go.viam.com/collide/spatialmath"
)

// DefaultBV is the hierarchy kind used for meshes that do not name one.
const DefaultBV = geometry.BVOBBRSS

// cellsPerAxis is how many cells a derived grid spans along its longest side.
const cellsPerAxis = 8

// Scene is a set of placed objects ready for collision queries.
type Scene struct {
	Objects []*collision.Object
	Request *collision.Request

	hash  *HashConfig
	names map[*collision.Object]string
}

// Load reads the scene file at path and builds it. Relative mesh paths are resolved against the directory of
// the scene file.
func Load(path string, logger logging.Logger) (*Scene, error) {
	conf, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	loader := meshloader.NewCachedMeshLoader(meshloader.PLYLoader{}, logger)
	return Build(conf, filepath.Dir(path), loader, logger)
}

// Build creates the geometries a validated config describes. Meshes go through loader so that objects
// sharing a mesh, scale and hierarchy kind share one hierarchy.
func Build(conf *Config, dir string, loader meshloader.Loader, logger logging.Logger) (*Scene, error) {
	s := &Scene{
		Request: conf.Request.request(),
		hash:    conf.Hash,
		names:   make(map[*collision.Object]string, len(conf.Objects)),
	}
	for _, objConf := range conf.Objects {
		geom, err := objConf.Geometry.build(dir, loader, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", objConf.Name)
		}
		obj := collision.NewObject(geom, objConf.Pose.pose())
		s.Objects = append(s.Objects, obj)
		s.names[obj] = objConf.Name
		logger.Debugw("built scene object", "name", objConf.Name, "type", geom.NodeType())
	}
	return s, nil
}

// Name returns the configured name of o, or "" if o is not part of the scene.
func (s *Scene) Name(o *collision.Object) string {
	return s.names[o]
}

// Object returns the object with the given name.
func (s *Scene) Object(name string) (*collision.Object, bool) {
	for _, o := range s.Objects {
		if s.names[o] == name {
			return o, true
		}
	}
	return nil, false
}

// Grid returns the broad phase extent and cell size. Without a hash section the extent is fit around the
// bounded objects and split into a fixed number of cells along its longest side.
func (s *Scene) Grid() (bv.AABB, float64) {
	if s.hash != nil {
		return bv.NewAABB(s.hash.Min.r3(), s.hash.Max.r3()), s.hash.CellSize
	}

	var limit bv.AABB
	found := false
	for _, o := range s.Objects {
		box := o.AABB()
		if !bounded(box) {
			continue
		}
		if !found {
			limit, found = box, true
			continue
		}
		limit = limit.Union(box)
	}
	if !found {
		limit = bv.NewAABB(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 1, Y: 1, Z: 1})
	}
	extent := limit.Max.Sub(limit.Min)
	cell := floats.Max([]float64{extent.X, extent.Y, extent.Z}) / cellsPerAxis
	if cell <= 0 {
		cell = 1
	}
	pad := r3.Vector{X: cell, Y: cell, Z: cell}
	return bv.NewAABB(limit.Min.Sub(pad), limit.Max.Add(pad)), cell
}

// Manager registers every object of the scene with a new spatial hash manager.
func (s *Scene) Manager(logger logging.Logger, opts ...broadphase.Option) (*broadphase.SpatialHashManager, error) {
	limit, cell := s.Grid()
	if s.hash != nil && s.hash.Sparse {
		opts = append(opts, broadphase.WithSparseTable())
	}
	m, err := broadphase.NewSpatialHashManager(limit, cell, logger, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Register(s.Objects...); err != nil {
		return nil, err
	}
	return m, nil
}

// Check tests every pair of objects whose bounds overlap and returns the colliding ones.
func (s *Scene) Check(ctx context.Context, logger logging.Logger, opts ...broadphase.Option) ([]broadphase.PairResult, error) {
	m, err := s.Manager(logger, opts...)
	if err != nil {
		return nil, err
	}
	return m.CollideAll(ctx, s.Request)
}

func bounded(box bv.AABB) bool {
	for _, v := range []float64{box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func (conf *RequestConfig) request() *collision.Request {
	req := collision.NewRequest()
	if conf == nil {
		return req
	}
	if conf.MaxContacts > 0 {
		req.NumMaxContacts = conf.MaxContacts
	}
	req.EnableContact = conf.Contacts
	req.EnableDistanceLowerBound = conf.DistanceLowerBound
	req.SecurityMargin = conf.SecurityMargin
	if conf.BreakDistance > 0 {
		req.BreakDistance = conf.BreakDistance
	}
	req.EnableCachedGJKGuess = conf.CachedGJKGuess
	return req
}

func (conf PoseConfig) pose() spatialmath.Pose {
	if conf.Orientation == nil {
		return spatialmath.NewPoseFromPoint(conf.Translation.r3())
	}
	o := conf.Orientation
	return spatialmath.NewPose(conf.Translation.r3(), &spatialmath.R4AA{Theta: o.Theta, RX: o.RX, RY: o.RY, RZ: o.RZ})
}

func vectors(vs []Vector) []r3.Vector {
	out := make([]r3.Vector, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.r3())
	}
	return out
}

func (conf *GeometryConfig) build(dir string, loader meshloader.Loader, logger logging.Logger) (geometry.Geometry, error) {
	switch conf.Type {
	case TypeBox:
		return geometry.NewBox(conf.Size.X, conf.Size.Y, conf.Size.Z)
	case TypeSphere:
		return geometry.NewSphere(conf.Radius)
	case TypeCapsule:
		return geometry.NewCapsule(conf.Radius, conf.Length)
	case TypeCone:
		return geometry.NewCone(conf.Radius, conf.Length)
	case TypeCylinder:
		return geometry.NewCylinder(conf.Radius, conf.Length)
	case TypeConvex:
		return geometry.NewConvex(vectors(conf.Points), conf.Polygons)
	case TypePlane:
		return geometry.NewPlane(conf.Normal.r3(), conf.Offset)
	case TypeHalfspace:
		return geometry.NewHalfspace(conf.Normal.r3(), conf.Offset)
	case TypeTriangle:
		pts := vectors(conf.Points)
		return geometry.NewTriangleP(pts[0], pts[1], pts[2]), nil
	case TypeMesh:
		kind := DefaultBV
		if conf.BV != "" {
			var err error
			if kind, err = geometry.ParseNodeType(conf.BV); err != nil {
				return nil, err
			}
		}
		scale := r3.Vector{X: 1, Y: 1, Z: 1}
		if conf.Scale != nil {
			scale = conf.Scale.r3()
		}
		path := conf.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return loader.Load(path, scale, kind)
	case TypeOctree:
		return octree.NewOcTreeFromPoints(vectors(conf.Points), conf.Resolution, logger)
	default:
		return nil, NewInvalidFieldError("geometry", "type", conf.Type)
	}
}
