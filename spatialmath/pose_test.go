package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestBasicPoseConstruction(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, OrientationAlmostEqual(p.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)

	p = NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-12), test.ShouldBeTrue)

	aa := &R4AA{Theta: math.Pi / 2, RZ: 1}
	p = NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, aa)
	test.That(t, R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-12), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(p.Orientation(), aa), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(NewPose(r3.Vector{X: 4}, nil), NewPoseFromPoint(r3.Vector{X: 4})), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(NewPoseFromOrientation(aa), NewPose(r3.Vector{}, aa)), test.ShouldBeTrue)
}

func TestPoseCompose(t *testing.T) {
	yaw := NewPose(r3.Vector{X: 1}, &R4AA{Theta: math.Pi / 2, RZ: 1})
	step := NewPoseFromPoint(r3.Vector{X: 1})

	c := Compose(yaw, step)
	test.That(t, R3VectorAlmostEqual(c.Point(), r3.Vector{X: 1, Y: 1}, 1e-9), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(c.Orientation(), yaw.Orientation()), test.ShouldBeTrue)

	pt := r3.Vector{X: 0.3, Y: -2, Z: 5}
	test.That(t, R3VectorAlmostEqual(TransformPoint(c, pt), TransformPoint(yaw, TransformPoint(step, pt)), 1e-9), test.ShouldBeTrue)

	t.Run("inverse", func(t *testing.T) {
		test.That(t, PoseAlmostEqual(Compose(c, PoseInverse(c)), NewZeroPose()), test.ShouldBeTrue)
		test.That(t, PoseAlmostEqual(Compose(PoseInverse(c), c), NewZeroPose()), test.ShouldBeTrue)
	})

	t.Run("between", func(t *testing.T) {
		a := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &R4AA{Theta: 0.4, RX: 1, RY: 1})
		b := NewPose(r3.Vector{X: -2, Z: 7}, &R4AA{Theta: 1.3, RY: 1})
		test.That(t, PoseAlmostEqual(Compose(a, PoseBetween(a, b)), b), test.ShouldBeTrue)
	})

	t.Run("long chains stay rigid", func(t *testing.T) {
		small := NewPose(r3.Vector{X: 0.01}, &R4AA{Theta: 0.01, RX: 0.3, RY: 0.5, RZ: 1})
		p := NewZeroPose()
		for i := 0; i < 10000; i++ {
			p = Compose(p, small)
		}
		test.That(t, quat.Abs(p.Orientation().Quaternion()), test.ShouldAlmostEqual, 1, 1e-12)
	})
}

func TestOrientationConversions(t *testing.T) {
	aa := &R4AA{Theta: 1.2, RX: 1, RY: -2, RZ: 0.5}
	rm := aa.RotationMatrix()
	test.That(t, OrientationAlmostEqual(rm, aa), test.ShouldBeTrue)

	back := rm.AxisAngles()
	axis := r3.Vector{X: 1, Y: -2, Z: 0.5}.Normalize()
	test.That(t, back.Theta, test.ShouldAlmostEqual, 1.2)
	test.That(t, R3VectorAlmostEqual(r3.Vector{X: back.RX, Y: back.RY, Z: back.RZ}, axis, 1e-9), test.ShouldBeTrue)

	test.That(t, R3VectorAlmostEqual(rm.Transpose().Mul(rm.Mul(r3.Vector{X: 1, Y: 2, Z: 3})), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(rm.TransposeMul(rm.Mul(r3.Vector{Z: 1})), r3.Vector{Z: 1}, 1e-9), test.ShouldBeTrue)

	t.Run("negated quaternion is the same rotation", func(t *testing.T) {
		q := aa.Quaternion()
		test.That(t, QuaternionAlmostEqual(q, quat.Scale(-1, q), 1e-9), test.ShouldBeTrue)
	})

	t.Run("between", func(t *testing.T) {
		o1 := &R4AA{Theta: 0.5, RZ: 1}
		o2 := &R4AA{Theta: 1.5, RZ: 1}
		test.That(t, OrientationAlmostEqual(OrientationBetween(o1, o2), &R4AA{Theta: 1, RZ: 1}), test.ShouldBeTrue)
	})

	t.Run("r3 axis angle", func(t *testing.T) {
		r4 := R3ToR4(r3.Vector{Z: math.Pi})
		test.That(t, r4.Theta, test.ShouldAlmostEqual, math.Pi)
		test.That(t, r4.RZ, test.ShouldAlmostEqual, 1)
		test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
		test.That(t, R3VectorAlmostEqual(r4.ToR3(), r3.Vector{Z: math.Pi}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("unnormalized quaternion", func(t *testing.T) {
		o := NewQuaternion(2, 0, 0, 0)
		test.That(t, OrientationAlmostEqual(o, NewZeroOrientation()), test.ShouldBeTrue)
	})
}
