package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// floatEpsilon is the tolerance used when comparing positions and distances.
const floatEpsilon = 1e-8

// Pose represents a 6dof rigid transform: a point in 3D space plus an orientation about that point.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion stores a rigid transform as a unit dual quaternion: the real part is the rotation and the
// dual part is half the translation multiplied into the rotation.
type dualQuaternion struct {
	dualquat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &dualQuaternion{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := &dualQuaternion{dualquat.Number{Real: Normalize(o.Quaternion())}}
	q.setTranslation(p)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := &dualQuaternion{dualquat.Number{Real: quat.Number{Real: 1}}}
	q.setTranslation(point)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a pose located at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func (q *dualQuaternion) setTranslation(p r3.Vector) {
	t := quat.Number{Imag: p.X / 2, Jmag: p.Y / 2, Kmag: p.Z / 2}
	q.Dual = quat.Mul(t, q.Real)
}

// Point returns the translation of the pose.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation of the pose.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

func toDualQuaternion(p Pose) *dualQuaternion {
	if dq, ok := p.(*dualQuaternion); ok {
		return dq
	}
	return NewPose(p.Point(), p.Orientation()).(*dualQuaternion)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It applies the second pose in the frame of the first.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(toDualQuaternion(a).Number, toDualQuaternion(b).Number)}
	// Keep the rotation a versor so long chains do not drift.
	result.Real = Normalize(result.Real)
	return result
}

// PoseInverse returns a Pose that is the inverse of the given one.
func PoseInverse(p Pose) Pose {
	dq := toDualQuaternion(p)
	return &dualQuaternion{dualquat.Number{Real: quat.Conj(dq.Real), Dual: quat.Conj(dq.Dual)}}
}

// PoseBetween returns the difference between two poses, i.e. the pose that maps frame b into frame a.
// Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint applies the pose to a point expressed in the pose's local frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Orientation().RotationMatrix().Mul(pt).Add(p.Point())
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps compares positions with the given epsilon and orientations with a fixed tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
