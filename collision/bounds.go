package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// shapeBound is the region a shape occupies, expressed in the frame of the hierarchy it is tested against.
// Bounded shapes are described by the corners of their box; planes and halfspaces by the slab
// {x : lo <= n.x <= hi}.
type shapeBound struct {
	unbounded bool
	corners   []r3.Vector
	n         r3.Vector
	lo, hi    float64
}

// boundShape places the bounds of s in the frame where s sits at pose.
func boundShape(s geometry.Shape, pose spatialmath.Pose) shapeBound {
	switch g := s.(type) {
	case *geometry.Plane:
		n, d := placePlane(g.N, g.D, pose)
		return shapeBound{unbounded: true, n: n, lo: d, hi: d}
	case *geometry.Halfspace:
		n, d := placePlane(g.N, g.D, pose)
		return shapeBound{unbounded: true, n: n, lo: math.Inf(-1), hi: d}
	}
	minPt, maxPt := s.AABB()
	corners := bv.Corners(minPt, maxPt)
	for i, c := range corners {
		corners[i] = spatialmath.TransformPoint(pose, c)
	}
	return shapeBound{corners: corners}
}

func placePlane(n r3.Vector, d float64, pose spatialmath.Pose) (r3.Vector, float64) {
	nw := pose.Orientation().RotationMatrix().Mul(n)
	return nw, d + nw.Dot(pose.Point())
}

// overlapsSlab tests a volume against the slab of an unbounded shape.
func overlapsSlab[BV bv.Volume[BV]](v BV, sb shapeBound, margin float64) bool {
	lo, hi := v.Interval(sb.n)
	return lo <= sb.hi+margin && hi >= sb.lo-margin
}

// slabDistance is the separation between a volume and the slab of an unbounded shape.
func slabDistance[BV bv.Volume[BV]](v BV, sb shapeBound) float64 {
	lo, hi := v.Interval(sb.n)
	return math.Max(0, math.Max(lo-sb.hi, sb.lo-hi))
}

// cellOBB is the box of an octree cell placed at pose.
func cellOBB(center r3.Vector, half float64, pose spatialmath.Pose) bv.OBB {
	rot := pose.Orientation().RotationMatrix()
	return bv.NewOBB(
		spatialmath.TransformPoint(pose, center),
		[3]r3.Vector{rot.Col(0), rot.Col(1), rot.Col(2)},
		r3.Vector{X: half, Y: half, Z: half},
	)
}

// boundsOBB is the axis aligned box (minPt, maxPt) of some frame placed at pose.
func boundsOBB(minPt, maxPt r3.Vector, pose spatialmath.Pose) bv.OBB {
	rot := pose.Orientation().RotationMatrix()
	return bv.OBBFromAABB(minPt, maxPt).Transform(rot, pose.Point())
}
