// Package collision decides whether placed geometries touch and reports their contacts. A Matrix picks the
// routine for each pair of registry codes; routines share the Request and Result types defined here.
package collision

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

// Pair is a row and column of the dispatch matrix.
type Pair struct {
	First, Second geometry.NodeType
}

func (p Pair) String() string {
	return fmt.Sprintf("%v/%v", p.First, p.Second)
}

// Matrix selects the collision routine for a pair of geometries by their registry codes. It is filled once by
// NewMatrix and only read afterwards, so one Matrix may serve concurrent queries as long as each query owns
// its Request and Result.
type Matrix struct {
	cells  [geometry.NodeCount][geometry.NodeCount]Func
	solver narrowphase.Solver
	octree bool
}

// MatrixOption configures a Matrix.
type MatrixOption func(*Matrix)

// WithOctree turns the voxel grid routines on or off. They are on by default.
func WithOctree(enabled bool) MatrixOption {
	return func(m *Matrix) { m.octree = enabled }
}

// WithSolver replaces the narrow phase solver used by every routine.
func WithSolver(solver narrowphase.Solver) MatrixOption {
	return func(m *Matrix) { m.solver = solver }
}

// NewMatrix builds a dispatch matrix. It panics if a pair it declares supported was left without a routine.
func NewMatrix(opts ...MatrixOption) *Matrix {
	m := &Matrix{solver: narrowphase.NewGJKSolver(), octree: true}
	for _, opt := range opts {
		opt(m)
	}

	for _, s1 := range geometry.ShapeKinds {
		for _, s2 := range geometry.ShapeKinds {
			m.set(s1, s2, shapeShapeCollide)
		}
	}

	registerOriented[bv.OBB](m)
	registerOriented[bv.RSS](m)
	registerOriented[bv.KIOS](m)
	registerOriented[bv.OBBRSS](m)
	registerGeneric[bv.AABB](m)
	registerGeneric[bv.KDOP16](m)
	registerGeneric[bv.KDOP18](m)
	registerGeneric[bv.KDOP24](m)

	if m.octree {
		for _, s := range geometry.ShapeKinds {
			m.set(geometry.GeomOctree, s, octreeShapeCollide)
			m.set(s, geometry.GeomOctree, flipped(octreeShapeCollide))
		}
		m.set(geometry.GeomOctree, geometry.GeomOctree, octreeOctreeCollide)
	}

	m.validate()
	return m
}

func registerOriented[BV bv.Oriented[BV]](m *Matrix) {
	var zero BV
	k := zero.Kind()
	for _, s := range geometry.ShapeKinds {
		m.set(k, s, orientedMeshShapeCollide[BV])
	}
	m.set(k, k, orientedMeshCollide[BV])
	registerOctreeMesh[BV](m)
}

func registerGeneric[BV bv.Volume[BV]](m *Matrix) {
	var zero BV
	k := zero.Kind()
	for _, s := range geometry.ShapeKinds {
		m.set(k, s, genericMeshShapeCollide[BV])
	}
	m.set(k, k, genericMeshCollide[BV])
	registerOctreeMesh[BV](m)
}

func registerOctreeMesh[BV bv.Volume[BV]](m *Matrix) {
	if !m.octree {
		return
	}
	var zero BV
	k := zero.Kind()
	m.set(geometry.GeomOctree, k, octreeMeshCollide[BV])
	m.set(k, geometry.GeomOctree, flipped(octreeMeshCollide[BV]))
}

func (m *Matrix) set(t1, t2 geometry.NodeType, f Func) {
	m.cells[t1][t2] = f
}

// declared lists every pair the matrix is expected to hold.
func (m *Matrix) declared() []Pair {
	var pairs []Pair
	for _, s1 := range geometry.ShapeKinds {
		for _, s2 := range geometry.ShapeKinds {
			pairs = append(pairs, Pair{s1, s2})
		}
	}
	for _, k := range geometry.BVKinds {
		for _, s := range geometry.ShapeKinds {
			pairs = append(pairs, Pair{k, s})
		}
		pairs = append(pairs, Pair{k, k})
	}
	if m.octree {
		pairs = append(pairs, Pair{geometry.GeomOctree, geometry.GeomOctree})
		for _, t := range append(append([]geometry.NodeType{}, geometry.ShapeKinds...), geometry.BVKinds...) {
			pairs = append(pairs, Pair{geometry.GeomOctree, t}, Pair{t, geometry.GeomOctree})
		}
	}
	return pairs
}

func (m *Matrix) validate() {
	for _, p := range m.declared() {
		if m.cells[p.First][p.Second] == nil {
			panic(errors.Errorf("collision matrix is missing a routine for %v", p))
		}
	}
}

// flipped runs f with its arguments swapped and swaps back the contacts it records.
func flipped(f Func) Func {
	return func(
		o1 geometry.Geometry, tf1 spatialmath.Pose,
		o2 geometry.Geometry, tf2 spatialmath.Pose,
		solver narrowphase.Solver, req *Request, res *Result,
	) int {
		before := res.NumContacts()
		n := f(o2, tf2, o1, tf1, solver, req, res)
		res.flipSince(before)
		return n
	}
}

func validType(t geometry.NodeType) bool {
	return t > geometry.BVUnknown && t < geometry.NodeCount
}

// Lookup returns the routine registered for the pair, if any.
func (m *Matrix) Lookup(t1, t2 geometry.NodeType) (Func, bool) {
	if !validType(t1) || !validType(t2) {
		return nil, false
	}
	f := m.cells[t1][t2]
	return f, f != nil
}

// Supports reports whether Collide can handle the pair, either directly or by swapping a shape in front of
// a hierarchy.
func (m *Matrix) Supports(t1, t2 geometry.NodeType) bool {
	if _, ok := m.Lookup(t1, t2); ok {
		return true
	}
	_, ok := m.Lookup(t2, t1)
	return ok && t1.IsShape() && t2.IsBV()
}

// SupportedPairs lists the populated cells in row-major order.
func (m *Matrix) SupportedPairs() []Pair {
	var pairs []Pair
	for t1 := geometry.NodeType(0); t1 < geometry.NodeCount; t1++ {
		for t2 := geometry.NodeType(0); t2 < geometry.NodeCount; t2++ {
			if m.cells[t1][t2] != nil {
				pairs = append(pairs, Pair{t1, t2})
			}
		}
	}
	return pairs
}

// Solver returns the narrow phase solver the matrix hands to its routines.
func (m *Matrix) Solver() narrowphase.Solver { return m.solver }

// Collide tests o1 placed at tf1 against o2 placed at tf2, appends contacts into res and returns the number
// of colliding primitive pairs found by this call. A shape given before a hierarchy is dispatched to the
// hierarchy's routine and the recorded contacts are flipped back into the caller's order.
func (m *Matrix) Collide(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	req *Request, res *Result,
) (int, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}
	t1, t2 := o1.NodeType(), o2.NodeType()
	if f, ok := m.Lookup(t1, t2); ok {
		return f(o1, tf1, o2, tf2, m.solver, req, res), nil
	}
	if t1.IsShape() && t2.IsBV() {
		if f, ok := m.Lookup(t2, t1); ok {
			return flipped(f)(o1, tf1, o2, tf2, m.solver, req, res), nil
		}
	}
	return 0, errors.Wrap(NewUnsupportedPairError(t1, t2), "cannot collide")
}

var (
	defaultMatrix     *Matrix
	defaultMatrixOnce sync.Once
)

// DefaultMatrix returns the process-wide matrix with every capability enabled and the GJK solver.
func DefaultMatrix() *Matrix {
	defaultMatrixOnce.Do(func() {
		defaultMatrix = NewMatrix()
	})
	return defaultMatrix
}

// Collide dispatches through DefaultMatrix.
func Collide(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	req *Request, res *Result,
) (int, error) {
	return DefaultMatrix().Collide(o1, tf1, o2, tf2, req, res)
}
