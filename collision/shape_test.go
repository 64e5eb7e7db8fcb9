package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

func makeSphere(t *testing.T, radius float64) *geometry.Sphere {
	t.Helper()
	s, err := geometry.NewSphere(radius)
	test.That(t, err, test.ShouldBeNil)
	return s
}

// countingSolver records how many distance queries reach the wrapped solver.
type countingSolver struct {
	narrowphase.Solver
	calls int
}

func (s *countingSolver) ShapeDistance(
	s1 geometry.Shape, tf1 spatialmath.Pose,
	s2 geometry.Shape, tf2 spatialmath.Pose,
	guess *r3.Vector,
) narrowphase.DistanceResult {
	s.calls++
	return s.Solver.ShapeDistance(s1, tf1, s2, tf2, guess)
}

func TestSphereContactRule(t *testing.T) {
	s1 := makeSphere(t, 1)
	s2 := makeSphere(t, 1)
	origin := spatialmath.NewZeroPose()
	at := func(x float64) spatialmath.Pose { return spatialmath.NewPoseFromPoint(r3.Vector{X: x}) }

	t.Run("separated beyond margin", func(t *testing.T) {
		req := NewRequest()
		req.SecurityMargin = 0.5
		res := NewResult()
		n, err := Collide(s1, origin, s2, at(3), req, res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
		test.That(t, res.DistanceLowerBound(), test.ShouldEqual, 1.0)
	})

	t.Run("penetrating", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(s1, origin, s2, at(1.5), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		c, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.PenetrationDepth, test.ShouldEqual, 0.5)
		test.That(t, spatialmath.R3VectorAlmostEqual(c.Normal, r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(c.Pos, r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
		test.That(t, c.O1 == geometry.Geometry(s1), test.ShouldBeTrue)
		test.That(t, c.O2 == geometry.Geometry(s2), test.ShouldBeTrue)
		test.That(t, c.B1, test.ShouldEqual, NoneIndex)
		test.That(t, c.B2, test.ShouldEqual, NoneIndex)
	})

	t.Run("touching at zero distance", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(s1, origin, s2, at(2), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		c, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.PenetrationDepth, test.ShouldAlmostEqual, 0)
		test.That(t, spatialmath.R3VectorAlmostEqual(c.Normal, r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("exactly at the security margin", func(t *testing.T) {
		req := NewRequest()
		req.SecurityMargin = 0.5
		res := NewResult()
		n, err := Collide(s1, origin, s2, at(2.5), req, res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		c, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.PenetrationDepth, test.ShouldEqual, -0.5)
		test.That(t, spatialmath.R3VectorAlmostEqual(c.Pos, r3.Vector{X: 1.25}, 1e-12), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(c.Normal, r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("just past the security margin", func(t *testing.T) {
		req := NewRequest()
		req.SecurityMargin = 0.5
		res := NewResult()
		n, err := Collide(s1, origin, s2, at(2.75), req, res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
		test.That(t, res.DistanceLowerBound(), test.ShouldEqual, 0.75)
	})

	t.Run("contact cap still counts the collision", func(t *testing.T) {
		req := NewRequestWithFlags(RequestContact, 1)
		res := NewResult()
		res.AddContact(Contact{O1: s1, O2: s2, B1: NoneIndex, B2: NoneIndex})
		n := shapeShapeCollide(s1, origin, s2, at(1.5), narrowphase.NewGJKSolver(), &Request{NumMaxContacts: 1, EnableContact: true}, res)
		test.That(t, n, test.ShouldEqual, 0)
		n = applyContactRule(narrowphase.DistanceResult{Distance: -0.5}, s1, s2, NoneIndex, NoneIndex, req, res)
		test.That(t, n, test.ShouldEqual, 1)
		test.That(t, res.NumContacts(), test.ShouldEqual, 1)
	})
}

func TestShapeCollideIdempotent(t *testing.T) {
	box, err := geometry.NewBox(1, 2, 3)
	test.That(t, err, test.ShouldBeNil)
	capsule, err := geometry.NewCapsule(0.5, 2)
	test.That(t, err, test.ShouldBeNil)
	tf1 := spatialmath.NewPose(r3.Vector{X: 0.1, Y: -0.2}, &spatialmath.R4AA{Theta: 0.3, RX: 1})
	tf2 := spatialmath.NewPose(r3.Vector{X: 0.6, Y: 0.4, Z: 0.5}, &spatialmath.R4AA{Theta: 1.1, RY: 1})

	req := NewRequestWithFlags(RequestContact, 4)
	res1, res2 := NewResult(), NewResult()
	n1, err := Collide(box, tf1, capsule, tf2, req, res1)
	test.That(t, err, test.ShouldBeNil)
	n2, err := Collide(box, tf1, capsule, tf2, req, res2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n1, test.ShouldEqual, 1)
	test.That(t, n2, test.ShouldEqual, n1)
	test.That(t, cmp.Diff(res1.Contacts(), res2.Contacts()), test.ShouldBeEmpty)
}

func TestCachedGJKGuess(t *testing.T) {
	box1, err := geometry.NewBox(1, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	box2, err := geometry.NewBox(1, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	tf2 := spatialmath.NewPoseFromPoint(r3.Vector{X: 3})

	req := NewRequest()
	req.EnableCachedGJKGuess = true
	res := NewResult()
	_, err = Collide(box1, spatialmath.NewZeroPose(), box2, tf2, req, res)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.IsCollision(), test.ShouldBeFalse)
	test.That(t, res.DistanceLowerBound(), test.ShouldAlmostEqual, 2, 1e-6)
	guess := res.CachedGJKGuess()
	test.That(t, guess.Norm2(), test.ShouldBeGreaterThan, 0)

	req.CachedGJKGuess = guess
	res2 := NewResult()
	_, err = Collide(box1, spatialmath.NewZeroPose(), box2, tf2, req, res2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res2.DistanceLowerBound(), test.ShouldAlmostEqual, 2, 1e-6)

	t.Run("guess untouched when disabled", func(t *testing.T) {
		res := NewResult()
		_, err := Collide(box1, spatialmath.NewZeroPose(), box2, tf2, NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.CachedGJKGuess(), test.ShouldResemble, r3.Vector{})
	})
}

func TestShapeAgainstPlane(t *testing.T) {
	plane, err := geometry.NewPlane(r3.Vector{Z: 1}, 0)
	test.That(t, err, test.ShouldBeNil)
	sphere := makeSphere(t, 1)

	res := NewResult()
	n, err := Collide(sphere, spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.5}), plane, spatialmath.NewZeroPose(), NewRequest(), res)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
	c, err := res.Contact(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.PenetrationDepth, test.ShouldAlmostEqual, 0.5)
	test.That(t, math.Abs(c.Normal.Z), test.ShouldAlmostEqual, 1)
}
