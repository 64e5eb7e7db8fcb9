package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/bvh"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/octree"
	"go.viam.com/collide/spatialmath"
)

// cell is an octree node together with the cube it covers. id is unique within the tree: the root is 1 and
// every step down appends the octant as three bits.
type cell struct {
	node   *octree.Node
	center r3.Vector
	half   float64
	id     int
}

func rootCell(tree *octree.OcTree) cell {
	center, half := tree.RootBox()
	return cell{node: tree.Root(), center: center, half: half, id: 1}
}

func (c cell) child(i int) (cell, bool) {
	n := c.node.Child(i)
	if n == nil {
		return cell{}, false
	}
	center, half := octree.ChildBox(c.center, c.half, i)
	return cell{node: n, center: center, half: half, id: c.id<<3 | i}, true
}

func (c cell) isLeaf() bool { return !c.node.HasChildren() }

// box returns the leaf as a box shape and its pose in the world.
func (c cell) box(treePose spatialmath.Pose) (*geometry.Box, spatialmath.Pose) {
	return &geometry.Box{HalfSide: c.halfSide()}, spatialmath.Compose(treePose, spatialmath.NewPoseFromPoint(c.center))
}

func (c cell) halfSide() r3.Vector { return r3.Vector{X: c.half, Y: c.half, Z: c.half} }

// size is the squared diagonal of the cell, comparable with bv.Volume.Size.
func (c cell) size() float64 { return 12 * c.half * c.half }

// octreeSolver walks an occupancy grid against another geometry. Free cells are pruned; occupied and
// uncertain leaves are tested as boxes.
type octreeSolver struct {
	solver narrowphase.Solver
	req    *Request
	res    *Result
}

func (s *octreeSolver) skip(tree *octree.OcTree, c cell) bool {
	return c.node == nil || tree.IsNodeFree(c.node)
}

// shapeRecurse tests the subtree of c against a shape whose bounds are given in the tree's frame.
func (s *octreeSolver) shapeRecurse(
	tree *octree.OcTree, treePose spatialmath.Pose, c cell,
	shape geometry.Shape, shapePose spatialmath.Pose, bound shapeBound, fitted bv.AABB,
) int {
	if s.req.IsSatisfied(s.res) || s.skip(tree, c) {
		return 0
	}
	s.res.stats.BVTests++
	cube := bv.NewAABB(c.center.Sub(c.halfSide()), c.center.Add(c.halfSide()))
	if bound.unbounded {
		if !overlapsSlab(cube, bound, s.req.SecurityMargin) {
			return 0
		}
	} else if !cube.Overlap(fitted, s.req.SecurityMargin) {
		return 0
	}
	if c.isLeaf() {
		s.res.stats.LeafTests++
		box, boxPose := c.box(treePose)
		dr := s.solver.ShapeDistance(box, boxPose, shape, shapePose, nil)
		return applyContactRule(dr, tree, shape, c.id, NoneIndex, s.req, s.res)
	}
	n := 0
	for i := 0; i < 8; i++ {
		if child, ok := c.child(i); ok {
			n += s.shapeRecurse(tree, treePose, child, shape, shapePose, bound, fitted)
		}
	}
	return n
}

// meshRecurse tests the subtree of c against node j of a hierarchy.
func meshRecurse[BV bv.Volume[BV]](
	s *octreeSolver,
	tree *octree.OcTree, treePose spatialmath.Pose, c cell,
	model *bvh.Model[BV], mesh geometry.Geometry, meshPose spatialmath.Pose, j int,
) int {
	if s.req.IsSatisfied(s.res) || s.skip(tree, c) {
		return 0
	}
	s.res.stats.BVTests++
	minPt, maxPt := model.NodeBV(j).Bounds()
	if !cellOBB(c.center, c.half, treePose).Overlap(boundsOBB(minPt, maxPt, meshPose), s.req.SecurityMargin) {
		return 0
	}
	meshLeaf := model.IsLeaf(j)
	if c.isLeaf() && meshLeaf {
		s.res.stats.LeafTests++
		box, boxPose := c.box(treePose)
		tri := model.LeafTriangle(j)
		a, b, d := model.TriangleVertices(tri)
		dr := s.solver.ShapeDistance(box, boxPose, geometry.NewTriangleP(a, b, d), meshPose, nil)
		return applyContactRule(dr, tree, mesh, c.id, tri, s.req, s.res)
	}
	n := 0
	if !c.isLeaf() && (meshLeaf || c.size() > model.NodeBV(j).Size()) {
		for i := 0; i < 8; i++ {
			if child, ok := c.child(i); ok {
				n += meshRecurse(s, tree, treePose, child, model, mesh, meshPose, j)
			}
		}
		return n
	}
	l, r := model.Children(j)
	n += meshRecurse(s, tree, treePose, c, model, mesh, meshPose, l)
	return n + meshRecurse(s, tree, treePose, c, model, mesh, meshPose, r)
}

// treeRecurse tests the subtree of c1 against the subtree of c2.
func (s *octreeSolver) treeRecurse(
	t1 *octree.OcTree, tf1 spatialmath.Pose, c1 cell,
	t2 *octree.OcTree, tf2 spatialmath.Pose, c2 cell,
) int {
	if s.req.IsSatisfied(s.res) || s.skip(t1, c1) || s.skip(t2, c2) {
		return 0
	}
	s.res.stats.BVTests++
	if !cellOBB(c1.center, c1.half, tf1).Overlap(cellOBB(c2.center, c2.half, tf2), s.req.SecurityMargin) {
		return 0
	}
	if c1.isLeaf() && c2.isLeaf() {
		s.res.stats.LeafTests++
		b1, p1 := c1.box(tf1)
		b2, p2 := c2.box(tf2)
		dr := s.solver.ShapeDistance(b1, p1, b2, p2, nil)
		return applyContactRule(dr, t1, t2, c1.id, c2.id, s.req, s.res)
	}
	n := 0
	if !c1.isLeaf() && (c2.isLeaf() || c1.half >= c2.half) {
		for i := 0; i < 8; i++ {
			if child, ok := c1.child(i); ok {
				n += s.treeRecurse(t1, tf1, child, t2, tf2, c2)
			}
		}
		return n
	}
	for i := 0; i < 8; i++ {
		if child, ok := c2.child(i); ok {
			n += s.treeRecurse(t1, tf1, c1, t2, tf2, child)
		}
	}
	return n
}

// octreeShapeCollide is the routine for an occupancy grid against a primitive shape.
func octreeShapeCollide(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	tree, shape := o1.(*octree.OcTree), o2.(geometry.Shape)
	if tree.Root() == nil {
		return 0
	}
	bound := boundShape(shape, spatialmath.PoseBetween(tf1, tf2))
	var fitted bv.AABB
	if !bound.unbounded {
		fitted = fitted.Fit(bound.corners)
	}
	s := &octreeSolver{solver: solver, req: req, res: res}
	return s.shapeRecurse(tree, tf1, rootCell(tree), shape, tf2, bound, fitted)
}

// octreeMeshCollide is the routine for an occupancy grid against a hierarchy of any kind.
func octreeMeshCollide[BV bv.Volume[BV]](
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	tree, model := o1.(*octree.OcTree), o2.(*bvh.Model[BV])
	if tree.Root() == nil || emptyModel(model) {
		return 0
	}
	s := &octreeSolver{solver: solver, req: req, res: res}
	return meshRecurse(s, tree, tf1, rootCell(tree), model, o2, tf2, 0)
}

// octreeOctreeCollide is the routine for two occupancy grids.
func octreeOctreeCollide(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	t1, t2 := o1.(*octree.OcTree), o2.(*octree.OcTree)
	if t1.Root() == nil || t2.Root() == nil {
		return 0
	}
	s := &octreeSolver{solver: solver, req: req, res: res}
	return s.treeRecurse(t1, tf1, rootCell(t1), t2, tf2, rootCell(t2))
}
