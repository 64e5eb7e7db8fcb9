package collision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/octree"
	"go.viam.com/collide/spatialmath"
)

func occupiedTree(t *testing.T, points ...r3.Vector) *octree.OcTree {
	t.Helper()
	tree, err := octree.NewOcTreeFromPoints(points, 0.1, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return tree
}

func TestOctreeShapeCollide(t *testing.T) {
	tree := occupiedTree(t, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05})
	sphere := makeSphere(t, 0.5)

	t.Run("occupied cell", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(tree, spatialmath.NewZeroPose(), sphere, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.05, Z: 0.05}), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		c, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.O1 == geometry.Geometry(tree), test.ShouldBeTrue)
		test.That(t, c.B1, test.ShouldBeGreaterThan, 0)
		test.That(t, c.B2, test.ShouldEqual, NoneIndex)
		test.That(t, c.PenetrationDepth, test.ShouldAlmostEqual, 0.3, 1e-6)
	})

	t.Run("far shape", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(tree, spatialmath.NewZeroPose(), sphere, spatialmath.NewPoseFromPoint(r3.Vector{X: 5, Y: 5, Z: 5}), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
		test.That(t, res.Stats().LeafTests, test.ShouldEqual, 0)
	})

	t.Run("moved tree", func(t *testing.T) {
		res := NewResult()
		treePose := spatialmath.NewPose(r3.Vector{X: 5, Y: 5, Z: 5}, &spatialmath.R4AA{Theta: 0.7, RZ: 1})
		n, err := Collide(tree, treePose, sphere, spatialmath.NewPoseFromPoint(r3.Vector{X: 5, Y: 5, Z: 5}), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
	})

	t.Run("shape first", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(sphere, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.05, Z: 0.05}), tree, spatialmath.NewZeroPose(), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
		c, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.O1 == geometry.Geometry(sphere), test.ShouldBeTrue)
		test.That(t, c.O2 == geometry.Geometry(tree), test.ShouldBeTrue)
		test.That(t, c.B1, test.ShouldEqual, NoneIndex)
		test.That(t, c.B2, test.ShouldBeGreaterThan, 0)
	})

	t.Run("halfspace", func(t *testing.T) {
		halfspace, err := geometry.NewHalfspace(r3.Vector{Z: 1}, 0.02)
		test.That(t, err, test.ShouldBeNil)
		res := NewResult()
		n, err := Collide(tree, spatialmath.NewZeroPose(), halfspace, spatialmath.NewZeroPose(), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)

		below, err := geometry.NewHalfspace(r3.Vector{Z: 1}, -1)
		test.That(t, err, test.ShouldBeNil)
		res = NewResult()
		n, err = Collide(tree, spatialmath.NewZeroPose(), below, spatialmath.NewZeroPose(), NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
	})
}

func TestOctreeFreeCellsArePruned(t *testing.T) {
	tree, err := octree.NewOcTree(0.1, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.UpdateNode(r3.Vector{X: 0.35, Y: 0.05, Z: 0.05}, false), test.ShouldBeNil)
	sphere := makeSphere(t, 0.5)
	spherePose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.05, Z: 0.05})

	t.Run("uncertain under the default thresholds", func(t *testing.T) {
		res := NewResult()
		n, err := Collide(tree, spatialmath.NewZeroPose(), sphere, spherePose, NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 1)
	})

	t.Run("free", func(t *testing.T) {
		tree.SetFreeThreshold(0.45)
		defer tree.SetFreeThreshold(octree.DefaultFreeThreshold)
		res := NewResult()
		n, err := Collide(tree, spatialmath.NewZeroPose(), sphere, spherePose, NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, 0)
		test.That(t, res.Stats().LeafTests, test.ShouldEqual, 0)
		test.That(t, res.Stats().BVTests, test.ShouldEqual, 0)
	})
}

func TestOctreeOctreeCollide(t *testing.T) {
	t1 := occupiedTree(t, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}, r3.Vector{X: 2.05, Y: 0.05, Z: 0.05})
	t2 := occupiedTree(t, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05})

	res := NewResult()
	n, err := Collide(t1, spatialmath.NewZeroPose(), t2, spatialmath.NewPoseFromPoint(r3.Vector{X: 2}), NewRequest(), res)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
	c, err := res.Contact(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.B1, test.ShouldBeGreaterThan, 0)
	test.That(t, c.B2, test.ShouldBeGreaterThan, 0)
	test.That(t, c.B1, test.ShouldNotEqual, c.B2)

	res = NewResult()
	n, err = Collide(t1, spatialmath.NewZeroPose(), t2, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}), NewRequest(), res)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)
	test.That(t, res.Stats().LeafTests, test.ShouldEqual, 0)

	t.Run("all contacts", func(t *testing.T) {
		req := NewRequestWithFlags(RequestContact, 10)
		res := NewResult()
		n, err := Collide(t1, spatialmath.NewZeroPose(), t1, spatialmath.NewZeroPose(), req, res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldBeGreaterThanOrEqualTo, 2)
		test.That(t, res.NumContacts(), test.ShouldEqual, n)
	})
}

func TestOctreeMeshCollide(t *testing.T) {
	tree := occupiedTree(t, r3.Vector{X: 0.55, Y: 0.05, Z: 0.05})
	meshPose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.03})

	for _, mesh := range cubeMeshes(t, 1) {
		mesh := mesh
		t.Run(mesh.NodeType().String(), func(t *testing.T) {
			res := NewResult()
			n, err := Collide(tree, spatialmath.NewZeroPose(), mesh, meshPose, NewRequest(), res)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, n, test.ShouldEqual, 1)
			c, err := res.Contact(0)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, c.O1 == geometry.Geometry(tree), test.ShouldBeTrue)
			test.That(t, c.B1, test.ShouldBeGreaterThan, 0)
			test.That(t, c.B2, test.ShouldBeBetween, -1, 12)

			swapped := NewResult()
			n, err = Collide(mesh, meshPose, tree, spatialmath.NewZeroPose(), NewRequest(), swapped)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, n, test.ShouldEqual, 1)
			sc, err := swapped.Contact(0)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, sc.Equal(c.flipped()), test.ShouldBeTrue)

			res = NewResult()
			n, err = Collide(tree, spatialmath.NewZeroPose(), mesh, spatialmath.NewPoseFromPoint(r3.Vector{X: -3}), NewRequest(), res)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, n, test.ShouldEqual, 0)
		})
	}

	t.Run("aabb hierarchy", func(t *testing.T) {
		res := NewResult()
		_, err := Collide(tree, spatialmath.NewZeroPose(), cubeMesh[bv.AABB](t, 1), meshPose, NewRequest(), res)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.IsCollision(), test.ShouldBeTrue)
	})
}
