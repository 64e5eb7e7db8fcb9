// Package bvh implements bounding volume hierarchies over triangle meshes.
package bvh

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// Hierarchy is the kind-independent view of a Model.
type Hierarchy interface {
	geometry.Geometry
	NumVertices() int
	NumTriangles() int
	Vertex(i int) (r3.Vector, error)
	Triangle(i int) ([3]int, error)
}

type node[BV bv.Volume[BV]] struct {
	bv BV
	// left and right are node indices, -1 for a leaf.
	left, right int
	// tri is the triangle of a leaf.
	tri int
}

// Model is a mesh of triangles with a binary hierarchy of bounding volumes of kind BV. Every leaf holds
// exactly one triangle. Vertices are stored in the model's own frame.
type Model[BV bv.Volume[BV]] struct {
	vertices  []r3.Vector
	triangles [][3]int
	nodes     []node[BV]
}

// New builds a hierarchy over the given mesh. Triangle indices must address vertices.
func New[BV bv.Volume[BV]](vertices []r3.Vector, triangles [][3]int) (*Model[BV], error) {
	for ti, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Wrapf(geometry.NewIndexOutOfRangeError("vertex", idx, len(vertices)), "triangle %d", ti)
			}
		}
	}
	m := &Model[BV]{
		vertices:  append([]r3.Vector(nil), vertices...),
		triangles: append([][3]int(nil), triangles...),
	}
	m.build()
	return m, nil
}

// ObjectType returns OTBVH.
func (m *Model[BV]) ObjectType() geometry.ObjectType { return geometry.OTBVH }

// NodeType returns the bounding volume kind of the hierarchy.
func (m *Model[BV]) NodeType() geometry.NodeType {
	var zero BV
	return zero.Kind()
}

// AABB returns the bounds of the vertices.
func (m *Model[BV]) AABB() (r3.Vector, r3.Vector) {
	a := bv.AABB{}.Fit(m.vertices)
	return a.Min, a.Max
}

// NumVertices returns the vertex count.
func (m *Model[BV]) NumVertices() int { return len(m.vertices) }

// NumTriangles returns the triangle count.
func (m *Model[BV]) NumTriangles() int { return len(m.triangles) }

// Vertex returns vertex i.
func (m *Model[BV]) Vertex(i int) (r3.Vector, error) {
	if i < 0 || i >= len(m.vertices) {
		return r3.Vector{}, geometry.NewIndexOutOfRangeError("vertex", i, len(m.vertices))
	}
	return m.vertices[i], nil
}

// Triangle returns the vertex indices of triangle i.
func (m *Model[BV]) Triangle(i int) ([3]int, error) {
	if i < 0 || i >= len(m.triangles) {
		return [3]int{}, geometry.NewIndexOutOfRangeError("triangle", i, len(m.triangles))
	}
	return m.triangles[i], nil
}

// TriangleVertices returns the corners of triangle i without bounds checking.
func (m *Model[BV]) TriangleVertices(i int) (r3.Vector, r3.Vector, r3.Vector) {
	t := m.triangles[i]
	return m.vertices[t[0]], m.vertices[t[1]], m.vertices[t[2]]
}

// NumNodes returns the number of hierarchy nodes; the root is node 0.
func (m *Model[BV]) NumNodes() int { return len(m.nodes) }

// NodeBV returns the bounding volume of node i.
func (m *Model[BV]) NodeBV(i int) BV { return m.nodes[i].bv }

// IsLeaf reports whether node i holds a triangle.
func (m *Model[BV]) IsLeaf(i int) bool { return m.nodes[i].left < 0 }

// Children returns the child node indices of internal node i.
func (m *Model[BV]) Children(i int) (int, int) { return m.nodes[i].left, m.nodes[i].right }

// LeafTriangle returns the triangle index held by leaf node i.
func (m *Model[BV]) LeafTriangle(i int) int { return m.nodes[i].tri }

// Clone returns a deep copy of the model.
func (m *Model[BV]) Clone() *Model[BV] {
	return &Model[BV]{
		vertices:  append([]r3.Vector(nil), m.vertices...),
		triangles: m.triangles,
		nodes:     append([]node[BV](nil), m.nodes...),
	}
}

// Transformed returns a clone whose vertices have been moved by pose and whose volumes are refit to them.
func (m *Model[BV]) Transformed(pose spatialmath.Pose) *Model[BV] {
	c := m.Clone()
	rot := pose.Orientation().RotationMatrix()
	trans := pose.Point()
	for i, v := range c.vertices {
		c.vertices[i] = rot.Mul(v).Add(trans)
	}
	c.Refit()
	return c
}

// Refit recomputes every bounding volume from the current vertices, keeping the tree topology.
func (m *Model[BV]) Refit() {
	if len(m.nodes) > 0 {
		m.refit(0)
	}
}

// refit returns the vertices below node i after refitting it.
func (m *Model[BV]) refit(i int) []r3.Vector {
	var pts []r3.Vector
	if m.IsLeaf(i) {
		a, b, c := m.TriangleVertices(m.nodes[i].tri)
		pts = []r3.Vector{a, b, c}
	} else {
		pts = append(m.refit(m.nodes[i].left), m.refit(m.nodes[i].right)...)
	}
	var zero BV
	m.nodes[i].bv = zero.Fit(pts)
	return pts
}

func (m *Model[BV]) build() {
	if len(m.triangles) == 0 {
		return
	}
	tris := make([]int, len(m.triangles))
	for i := range tris {
		tris[i] = i
	}
	m.nodes = make([]node[BV], 0, 2*len(tris)-1)
	m.buildNode(tris)
}

// buildNode appends the subtree over tris and returns its index. Splits are at the median centroid along the
// axis of largest centroid spread.
func (m *Model[BV]) buildNode(tris []int) int {
	idx := len(m.nodes)
	m.nodes = append(m.nodes, node[BV]{left: -1, right: -1})

	pts := make([]r3.Vector, 0, 3*len(tris))
	centroids := make([]r3.Vector, len(tris))
	for i, t := range tris {
		a, b, c := m.TriangleVertices(t)
		pts = append(pts, a, b, c)
		centroids[i] = a.Add(b).Add(c).Mul(1. / 3.)
	}
	var zero BV
	m.nodes[idx].bv = zero.Fit(pts)

	if len(tris) == 1 {
		m.nodes[idx].tri = tris[0]
		return idx
	}

	cb := bv.AABB{}.Fit(centroids)
	ext := cb.Max.Sub(cb.Min)
	component := func(v r3.Vector) float64 { return v.X }
	if ext.Y > ext.X && ext.Y >= ext.Z {
		component = func(v r3.Vector) float64 { return v.Y }
	} else if ext.Z > ext.X && ext.Z > ext.Y {
		component = func(v r3.Vector) float64 { return v.Z }
	}
	order := make([]int, len(tris))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return component(centroids[order[i]]) < component(centroids[order[j]])
	})
	sorted := make([]int, len(tris))
	for i, o := range order {
		sorted[i] = tris[o]
	}
	mid := len(sorted) / 2
	left := m.buildNode(sorted[:mid])
	right := m.buildNode(sorted[mid:])
	m.nodes[idx].left, m.nodes[idx].right = left, right
	return idx
}

// Depth returns the depth of the tree, 0 for an empty model.
func (m *Model[BV]) Depth() int {
	if len(m.nodes) == 0 {
		return 0
	}
	var depth func(i int) int
	depth = func(i int) int {
		if m.IsLeaf(i) {
			return 1
		}
		l, r := m.Children(i)
		return 1 + max(depth(l), depth(r))
	}
	return depth(0)
}
