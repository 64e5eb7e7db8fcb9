package collision

import (
	"go.viam.com/collide/bv"
	"go.viam.com/collide/bvh"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

// traversal is a pair of trees walked together. Node indices are local to each tree and 0 is the root.
type traversal interface {
	isLeaf1(i int) bool
	isLeaf2(j int) bool
	children1(i int) (int, int)
	children2(j int) (int, int)
	// descendFirst reports whether node i of the first tree is split before node j of the second.
	descendFirst(i, j int) bool
	// bvTest reports whether the pair may hold contacts and must be visited.
	bvTest(i, j int) bool
	leafTest(i, j int) int
}

// collideRecurse walks the pair (i, j), pruning disjoint volumes and stopping as soon as req is satisfied.
func collideRecurse(t traversal, i, j int, req *Request, res *Result) int {
	if req.IsSatisfied(res) {
		return 0
	}
	res.stats.BVTests++
	if !t.bvTest(i, j) {
		return 0
	}
	leaf1, leaf2 := t.isLeaf1(i), t.isLeaf2(j)
	if leaf1 && leaf2 {
		res.stats.LeafTests++
		return t.leafTest(i, j)
	}
	if !leaf1 && (leaf2 || t.descendFirst(i, j)) {
		l, r := t.children1(i)
		n := collideRecurse(t, l, j, req, res)
		return n + collideRecurse(t, r, j, req, res)
	}
	l, r := t.children2(j)
	n := collideRecurse(t, i, l, req, res)
	return n + collideRecurse(t, i, r, req, res)
}

// keepDescending decides a disjoint pair: with a lower bound requested, pairs closer than the break distance
// are still visited and farther ones contribute their separation.
func keepDescending(dist func() float64, req *Request, res *Result) bool {
	if !req.EnableDistanceLowerBound {
		return false
	}
	d := dist()
	if d < req.BreakDistance {
		return true
	}
	res.updateDistanceLowerBound(d)
	return false
}

// meshShapeTraversal walks a hierarchy against one shape. The shape's bounds are expressed in the frame the
// hierarchy's volumes live in, so no volume is transformed during the walk.
type meshShapeTraversal[BV bv.Volume[BV]] struct {
	model *bvh.Model[BV]
	// triPose places the model's vertices in the world.
	triPose spatialmath.Pose
	mesh    geometry.Geometry

	shape     geometry.Shape
	shapePose spatialmath.Pose
	bound     shapeBound
	fitted    BV

	solver narrowphase.Solver
	req    *Request
	res    *Result
}

func newMeshShapeTraversal[BV bv.Volume[BV]](
	model *bvh.Model[BV], triPose spatialmath.Pose, mesh geometry.Geometry,
	shape geometry.Shape, shapePose, shapeInModel spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) *meshShapeTraversal[BV] {
	t := &meshShapeTraversal[BV]{
		model:     model,
		triPose:   triPose,
		mesh:      mesh,
		shape:     shape,
		shapePose: shapePose,
		bound:     boundShape(shape, shapeInModel),
		solver:    solver,
		req:       req,
		res:       res,
	}
	if !t.bound.unbounded {
		var zero BV
		t.fitted = zero.Fit(t.bound.corners)
	}
	return t
}

func (t *meshShapeTraversal[BV]) isLeaf1(i int) bool         { return t.model.IsLeaf(i) }
func (t *meshShapeTraversal[BV]) isLeaf2(int) bool           { return true }
func (t *meshShapeTraversal[BV]) children1(i int) (int, int) { return t.model.Children(i) }
func (t *meshShapeTraversal[BV]) children2(j int) (int, int) { return j, j }
func (t *meshShapeTraversal[BV]) descendFirst(int, int) bool { return true }

func (t *meshShapeTraversal[BV]) bvTest(i, _ int) bool {
	v := t.model.NodeBV(i)
	if t.bound.unbounded {
		if overlapsSlab(v, t.bound, t.req.SecurityMargin) {
			return true
		}
		return keepDescending(func() float64 { return slabDistance(v, t.bound) }, t.req, t.res)
	}
	if v.Overlap(t.fitted, t.req.SecurityMargin) {
		return true
	}
	return keepDescending(func() float64 { return v.Distance(t.fitted) }, t.req, t.res)
}

func (t *meshShapeTraversal[BV]) leafTest(i, _ int) int {
	tri := t.model.LeafTriangle(i)
	a, b, c := t.model.TriangleVertices(tri)
	dr := t.solver.ShapeDistance(geometry.NewTriangleP(a, b, c), t.triPose, t.shape, t.shapePose, nil)
	return applyContactRule(dr, t.mesh, t.shape, tri, NoneIndex, t.req, t.res)
}

// meshMeshTraversal walks two hierarchies of the same kind. overlap and distance compare a volume of the
// first tree with one of the second, whatever frames they are stored in.
type meshMeshTraversal[BV bv.Volume[BV]] struct {
	m1, m2       *bvh.Model[BV]
	pose1, pose2 spatialmath.Pose
	o1, o2       geometry.Geometry

	overlap  func(a, b BV, margin float64) bool
	distance func(a, b BV) float64

	solver narrowphase.Solver
	req    *Request
	res    *Result
}

func (t *meshMeshTraversal[BV]) isLeaf1(i int) bool         { return t.m1.IsLeaf(i) }
func (t *meshMeshTraversal[BV]) isLeaf2(j int) bool         { return t.m2.IsLeaf(j) }
func (t *meshMeshTraversal[BV]) children1(i int) (int, int) { return t.m1.Children(i) }
func (t *meshMeshTraversal[BV]) children2(j int) (int, int) { return t.m2.Children(j) }

func (t *meshMeshTraversal[BV]) descendFirst(i, j int) bool {
	return t.m1.NodeBV(i).Size() > t.m2.NodeBV(j).Size()
}

func (t *meshMeshTraversal[BV]) bvTest(i, j int) bool {
	a, b := t.m1.NodeBV(i), t.m2.NodeBV(j)
	if t.overlap(a, b, t.req.SecurityMargin) {
		return true
	}
	return keepDescending(func() float64 { return t.distance(a, b) }, t.req, t.res)
}

func (t *meshMeshTraversal[BV]) leafTest(i, j int) int {
	t1, t2 := t.m1.LeafTriangle(i), t.m2.LeafTriangle(j)
	a1, b1, c1 := t.m1.TriangleVertices(t1)
	a2, b2, c2 := t.m2.TriangleVertices(t2)
	dr := t.solver.ShapeDistance(
		geometry.NewTriangleP(a1, b1, c1), t.pose1,
		geometry.NewTriangleP(a2, b2, c2), t.pose2,
		nil,
	)
	return applyContactRule(dr, t.o1, t.o2, t1, t2, t.req, t.res)
}

func sameFrameOverlap[BV bv.Volume[BV]](a, b BV, margin float64) bool { return a.Overlap(b, margin) }

func sameFrameDistance[BV bv.Volume[BV]](a, b BV) float64 { return a.Distance(b) }

func emptyModel[BV bv.Volume[BV]](m *bvh.Model[BV]) bool { return m.NumNodes() == 0 }

// genericMeshShapeCollide clones the hierarchy into the world frame and walks it against the shape.
func genericMeshShapeCollide[BV bv.Volume[BV]](
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	model := o1.(*bvh.Model[BV])
	if emptyModel(model) {
		return 0
	}
	world := model.Transformed(tf1)
	t := newMeshShapeTraversal(world, spatialmath.NewZeroPose(), o1, o2.(geometry.Shape), tf2, tf2, solver, req, res)
	return collideRecurse(t, 0, 0, req, res)
}

// orientedMeshShapeCollide walks the hierarchy in its own frame against the shape's bounds moved into it.
func orientedMeshShapeCollide[BV bv.Oriented[BV]](
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	model := o1.(*bvh.Model[BV])
	if emptyModel(model) {
		return 0
	}
	rel := spatialmath.PoseBetween(tf1, tf2)
	t := newMeshShapeTraversal(model, tf1, o1, o2.(geometry.Shape), tf2, rel, solver, req, res)
	return collideRecurse(t, 0, 0, req, res)
}

// genericMeshCollide clones both hierarchies into the world frame and walks them together.
func genericMeshCollide[BV bv.Volume[BV]](
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	m1, m2 := o1.(*bvh.Model[BV]), o2.(*bvh.Model[BV])
	if emptyModel(m1) || emptyModel(m2) {
		return 0
	}
	zero := spatialmath.NewZeroPose()
	t := &meshMeshTraversal[BV]{
		m1:       m1.Transformed(tf1),
		m2:       m2.Transformed(tf2),
		pose1:    zero,
		pose2:    zero,
		o1:       o1,
		o2:       o2,
		overlap:  sameFrameOverlap[BV],
		distance: sameFrameDistance[BV],
		solver:   solver,
		req:      req,
		res:      res,
	}
	return collideRecurse(t, 0, 0, req, res)
}

// orientedMeshCollide walks both hierarchies in their own frames. Only the one relative transform between
// them is kept; each volume of the second tree is moved into the first tree's frame when tested.
func orientedMeshCollide[BV bv.Oriented[BV]](
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	m1, m2 := o1.(*bvh.Model[BV]), o2.(*bvh.Model[BV])
	if emptyModel(m1) || emptyModel(m2) {
		return 0
	}
	rel := spatialmath.PoseBetween(tf1, tf2)
	rot, trans := rel.Orientation().RotationMatrix(), rel.Point()
	t := &meshMeshTraversal[BV]{
		m1:    m1,
		m2:    m2,
		pose1: tf1,
		pose2: tf2,
		o1:    o1,
		o2:    o2,
		overlap: func(a, b BV, margin float64) bool {
			return bv.OverlapTransformed(a, rot, trans, b, margin)
		},
		distance: func(a, b BV) float64 {
			return bv.DistanceTransformed(a, rot, trans, b)
		},
		solver: solver,
		req:    req,
		res:    res,
	}
	return collideRecurse(t, 0, 0, req, res)
}
