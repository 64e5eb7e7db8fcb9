package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// Object places a geometry in the world. Many objects may share one geometry.
type Object struct {
	geom geometry.Geometry
	pose spatialmath.Pose
	aabb bv.AABB
}

// NewObject places g at pose. A nil pose is the identity.
func NewObject(g geometry.Geometry, pose spatialmath.Pose) *Object {
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	o := &Object{geom: g}
	o.SetPose(pose)
	return o
}

// Geometry returns the shared geometry.
func (o *Object) Geometry() geometry.Geometry { return o.geom }

// Pose returns the placement of the object.
func (o *Object) Pose() spatialmath.Pose { return o.pose }

// SetPose moves the object and recomputes its world bounds.
func (o *Object) SetPose(pose spatialmath.Pose) {
	o.pose = pose
	minPt, maxPt := o.geom.AABB()
	if !finite(minPt) || !finite(maxPt) {
		inf := math.Inf(1)
		o.aabb = bv.NewAABB(r3.Vector{X: -inf, Y: -inf, Z: -inf}, r3.Vector{X: inf, Y: inf, Z: inf})
		return
	}
	corners := bv.Corners(minPt, maxPt)
	for i, c := range corners {
		corners[i] = spatialmath.TransformPoint(pose, c)
	}
	o.aabb = o.aabb.Fit(corners)
}

// AABB returns the world axis aligned bounds of the object. Unbounded geometries report infinite bounds.
func (o *Object) AABB() bv.AABB { return o.aabb }

func finite(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsInf(c, 0) || math.IsNaN(c) {
			return false
		}
	}
	return true
}

// CollideObjects tests two placed objects through DefaultMatrix.
func CollideObjects(o1, o2 *Object, req *Request, res *Result) (int, error) {
	return Collide(o1.geom, o1.pose, o2.geom, o2.pose, req, res)
}
