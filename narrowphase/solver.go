// Package narrowphase computes signed distances, witness points and normals between placed primitive shapes.
package narrowphase

import (
	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// DistanceResult is the outcome of a distance query. All vectors are in the world frame.
type DistanceResult struct {
	// Distance is the signed separation; negative values are penetration depths.
	Distance float64
	// P1 and P2 are the nearest points on the first and second shape. When the shapes overlap they are the
	// deepest points of each shape inside the other.
	P1, P2 r3.Vector
	// Normal is unit length and points from the first shape toward the second.
	Normal r3.Vector
	// Guess is a search direction that can seed the next query on the same pair.
	Guess r3.Vector
}

func (r DistanceResult) swapped() DistanceResult {
	return DistanceResult{Distance: r.Distance, P1: r.P2, P2: r.P1, Normal: r.Normal.Mul(-1), Guess: r.Guess.Mul(-1)}
}

// Solver computes the distance between two placed shapes. guess may be nil.
type Solver interface {
	ShapeDistance(s1 geometry.Shape, tf1 spatialmath.Pose, s2 geometry.Shape, tf2 spatialmath.Pose, guess *r3.Vector) DistanceResult
}

// GJKSolver answers distance queries with closed forms where they exist and GJK/EPA otherwise.
type GJKSolver struct {
	// MaxIterations bounds both GJK and EPA.
	MaxIterations int
	// Tolerance is the relative convergence tolerance.
	Tolerance float64
}

// NewGJKSolver returns a solver with default limits.
func NewGJKSolver() *GJKSolver {
	return &GJKSolver{MaxIterations: 128, Tolerance: 1e-9}
}

// ShapeDistance computes the signed distance between s1 placed at tf1 and s2 placed at tf2.
func (s *GJKSolver) ShapeDistance(
	s1 geometry.Shape, tf1 spatialmath.Pose,
	s2 geometry.Shape, tf2 spatialmath.Pose,
	guess *r3.Vector,
) DistanceResult {
	if res, ok := analyticDistance(s1, tf1, s2, tf2); ok {
		return res
	}
	a := newPlaced(s1, tf1)
	b := newPlaced(s2, tf2)
	dir := b.center().Sub(a.center())
	if guess != nil && guess.Norm2() > 0 {
		dir = *guess
	}
	return s.gjk(a, b, dir)
}
