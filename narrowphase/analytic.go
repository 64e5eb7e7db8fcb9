package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// unboundedDepth is reported as the penetration depth of pairs whose overlap is unbounded, such as two
// non-parallel halfspaces.
const unboundedDepth = math.MaxFloat64

// analyticDistance handles the pairs with closed forms. ok is false when the pair needs GJK.
func analyticDistance(s1 geometry.Shape, tf1 spatialmath.Pose, s2 geometry.Shape, tf2 spatialmath.Pose) (DistanceResult, bool) {
	switch g2 := s2.(type) {
	case *geometry.Halfspace:
		if _, ok := s1.(*geometry.Halfspace); !ok {
			if _, ok := s1.(*geometry.Plane); !ok {
				return shapeHalfspace(s1, tf1, g2, tf2), true
			}
		}
	case *geometry.Plane:
		if _, ok := s1.(*geometry.Halfspace); !ok {
			if _, ok := s1.(*geometry.Plane); !ok {
				return shapePlane(s1, tf1, g2, tf2), true
			}
		}
	}
	switch g1 := s1.(type) {
	case *geometry.Halfspace:
		switch g2 := s2.(type) {
		case *geometry.Halfspace:
			return halfspaceHalfspace(g1, tf1, g2, tf2), true
		case *geometry.Plane:
			return planeHalfspace(g2, tf2, g1, tf1).swapped(), true
		default:
			return shapeHalfspace(s2, tf2, g1, tf1).swapped(), true
		}
	case *geometry.Plane:
		switch g2 := s2.(type) {
		case *geometry.Halfspace:
			return planeHalfspace(g1, tf1, g2, tf2), true
		case *geometry.Plane:
			return planePlane(g1, tf1, g2, tf2), true
		default:
			return shapePlane(s2, tf2, g1, tf1).swapped(), true
		}
	case *geometry.Sphere, *geometry.Capsule:
		switch s2.(type) {
		case *geometry.Sphere, *geometry.Capsule:
			return sweptSegments(s1, tf1, s2, tf2), true
		case *geometry.Box:
			return sphereBox(s1, tf1, s2.(*geometry.Box), tf2)
		case *geometry.TriangleP:
			if sphere, ok := s1.(*geometry.Sphere); ok {
				return sphereTriangle(sphere, tf1, s2.(*geometry.TriangleP), tf2), true
			}
		}
	case *geometry.Box:
		if _, ok := s2.(*geometry.Sphere); ok {
			res, ok := sphereBox(s2, tf2, g1, tf1)
			return res.swapped(), ok
		}
	case *geometry.TriangleP:
		if sphere, ok := s2.(*geometry.Sphere); ok {
			return sphereTriangle(sphere, tf2, g1, tf1).swapped(), true
		}
	}
	return DistanceResult{}, false
}

// coreSegment returns the world segment swept by a sphere or capsule, and the sweep radius.
func coreSegment(s geometry.Shape, tf spatialmath.Pose) (r3.Vector, r3.Vector, float64) {
	switch g := s.(type) {
	case *geometry.Sphere:
		c := tf.Point()
		return c, c, g.Radius
	case *geometry.Capsule:
		a, b := g.Segment()
		return spatialmath.TransformPoint(tf, a), spatialmath.TransformPoint(tf, b), g.Radius
	}
	return r3.Vector{}, r3.Vector{}, 0
}

// sweptSegments solves sphere and capsule pairs through the closest points of their core segments.
func sweptSegments(s1 geometry.Shape, tf1 spatialmath.Pose, s2 geometry.Shape, tf2 spatialmath.Pose) DistanceResult {
	a0, a1, r1 := coreSegment(s1, tf1)
	b0, b1, r2 := coreSegment(s2, tf2)
	c1, c2 := spatialmath.ClosestPointsSegmentSegment(a0, a1, b0, b1)
	return inflate(c1, c2, r1, r2, fallbackNormal(a1.Sub(a0), b1.Sub(b0)))
}

// inflate turns the closest points of two cores into the result for the cores swept by r1 and r2.
// fallback is used as the normal when the cores touch.
func inflate(c1, c2 r3.Vector, r1, r2 float64, fallback r3.Vector) DistanceResult {
	diff := c2.Sub(c1)
	dist := diff.Norm()
	n := fallback
	if dist > 1e-12 {
		n = diff.Mul(1 / dist)
	}
	return DistanceResult{
		Distance: dist - r1 - r2,
		P1:       c1.Add(n.Mul(r1)),
		P2:       c2.Sub(n.Mul(r2)),
		Normal:   n,
		Guess:    n,
	}
}

// fallbackNormal is a unit direction perpendicular to both directions when possible.
func fallbackNormal(d1, d2 r3.Vector) r3.Vector {
	if c := d1.Cross(d2); c.Norm2() > 1e-18 {
		return c.Normalize()
	}
	for _, d := range []r3.Vector{d1, d2} {
		if d.Norm2() > 1e-18 {
			return d.Ortho()
		}
	}
	return r3.Vector{X: 1}
}

// sphereTriangle measures a sphere against the closest point of a triangle to its center.
func sphereTriangle(sphere *geometry.Sphere, tf1 spatialmath.Pose, tri *geometry.TriangleP, tf2 spatialmath.Pose) DistanceResult {
	world := spatialmath.NewTriangle(tri.A, tri.B, tri.C).Transform(tf2)
	c := tf1.Point()
	return inflate(c, world.ClosestPointToPoint(c), sphere.Radius, 0, world.Normal())
}

// sphereBox handles a sphere (s1) against a box. Capsules fall through to GJK.
func sphereBox(s1 geometry.Shape, tf1 spatialmath.Pose, box *geometry.Box, tf2 spatialmath.Pose) (DistanceResult, bool) {
	sphere, ok := s1.(*geometry.Sphere)
	if !ok {
		return DistanceResult{}, false
	}
	rot := tf2.Orientation().RotationMatrix()
	c := tf1.Point()
	local := rot.TransposeMul(c.Sub(tf2.Point()))
	h := box.HalfSide
	q := r3.Vector{
		X: math.Max(-h.X, math.Min(h.X, local.X)),
		Y: math.Max(-h.Y, math.Min(h.Y, local.Y)),
		Z: math.Max(-h.Z, math.Min(h.Z, local.Z)),
	}
	if q != local {
		return inflate(c, rot.Mul(q).Add(tf2.Point()), sphere.Radius, 0, r3.Vector{X: 1}), true
	}

	// Center inside the box: leave through the nearest face.
	depths := [3]float64{h.X - math.Abs(local.X), h.Y - math.Abs(local.Y), h.Z - math.Abs(local.Z)}
	comps := [3]float64{local.X, local.Y, local.Z}
	axis := 0
	for i := 1; i < 3; i++ {
		if depths[i] < depths[axis] {
			axis = i
		}
	}
	face := rot.Col(axis)
	if comps[axis] < 0 {
		face = face.Mul(-1)
	}
	n := face.Mul(-1)
	return DistanceResult{
		Distance: -(depths[axis] + sphere.Radius),
		P1:       c.Add(n.Mul(sphere.Radius)),
		P2:       c.Add(face.Mul(depths[axis])),
		Normal:   n,
		Guess:    face,
	}, true
}

// worldSupport returns the support point of a bounded shape in the world frame.
func worldSupport(s geometry.Shape, tf spatialmath.Pose, dir r3.Vector) r3.Vector {
	p := newPlaced(s, tf)
	return p.support(dir).Add(dir.Normalize().Mul(p.radius))
}

func worldPlane(n r3.Vector, d float64, tf spatialmath.Pose) (r3.Vector, float64) {
	nw := tf.Orientation().RotationMatrix().Mul(n)
	return nw, d + nw.Dot(tf.Point())
}

// shapeHalfspace handles a bounded shape (first) against a halfspace (second).
func shapeHalfspace(s geometry.Shape, tf spatialmath.Pose, h *geometry.Halfspace, tfh spatialmath.Pose) DistanceResult {
	n, d := worldPlane(h.N, h.D, tfh)
	deepest := worldSupport(s, tf, n.Mul(-1))
	dist := n.Dot(deepest) - d
	return DistanceResult{
		Distance: dist,
		P1:       deepest,
		P2:       deepest.Sub(n.Mul(dist)),
		Normal:   n.Mul(-1),
		Guess:    n,
	}
}

// shapePlane handles a bounded shape (first) against a plane (second). A shape crossing the plane is pushed
// out through whichever side needs the smaller motion.
func shapePlane(s geometry.Shape, tf spatialmath.Pose, p *geometry.Plane, tfp spatialmath.Pose) DistanceResult {
	n, d := worldPlane(p.N, p.D, tfp)
	low := worldSupport(s, tf, n.Mul(-1))
	high := worldSupport(s, tf, n)
	dLow := n.Dot(low) - d
	dHigh := n.Dot(high) - d
	switch {
	case dLow > 0:
		return DistanceResult{Distance: dLow, P1: low, P2: low.Sub(n.Mul(dLow)), Normal: n.Mul(-1), Guess: n}
	case dHigh < 0:
		return DistanceResult{Distance: -dHigh, P1: high, P2: high.Sub(n.Mul(dHigh)), Normal: n, Guess: n.Mul(-1)}
	case -dLow <= dHigh:
		return DistanceResult{Distance: dLow, P1: low, P2: low.Sub(n.Mul(dLow)), Normal: n.Mul(-1), Guess: n}
	default:
		return DistanceResult{Distance: -dHigh, P1: high, P2: high.Sub(n.Mul(dHigh)), Normal: n, Guess: n.Mul(-1)}
	}
}

// pointOnPlane returns the point of {x : n.x = d} closest to the origin.
func pointOnPlane(n r3.Vector, d float64) r3.Vector {
	return n.Mul(d)
}

func planePlane(p1 *geometry.Plane, tf1 spatialmath.Pose, p2 *geometry.Plane, tf2 spatialmath.Pose) DistanceResult {
	n1, d1 := worldPlane(p1.N, p1.D, tf1)
	n2, d2 := worldPlane(p2.N, p2.D, tf2)
	if n1.Cross(n2).Norm2() > 1e-18 {
		// Non-parallel planes intersect along a line.
		pt := pointOnPlane(n1, d1)
		pt = pt.Sub(n2.Mul(n2.Dot(pt) - d2))
		return DistanceResult{P1: pt, P2: pt, Normal: n1, Guess: n1}
	}
	if n1.Dot(n2) < 0 {
		n2, d2 = n2.Mul(-1), -d2
	}
	gap := d2 - d1
	n := n1
	if gap < 0 {
		n = n1.Mul(-1)
	}
	pa := pointOnPlane(n1, d1)
	return DistanceResult{Distance: math.Abs(gap), P1: pa, P2: pa.Add(n1.Mul(gap)), Normal: n, Guess: n.Mul(-1)}
}

func planeHalfspace(p *geometry.Plane, tf1 spatialmath.Pose, h *geometry.Halfspace, tf2 spatialmath.Pose) DistanceResult {
	n1, d1 := worldPlane(p.N, p.D, tf1)
	n2, d2 := worldPlane(h.N, h.D, tf2)
	pa := pointOnPlane(n1, d1)
	if n1.Cross(n2).Norm2() > 1e-18 {
		return DistanceResult{Distance: -unboundedDepth, P1: pa, P2: pa, Normal: n2.Mul(-1), Guess: n2}
	}
	// Parallel: the plane is at signed height dist above the halfspace boundary.
	dist := n2.Dot(pa) - d2
	return DistanceResult{Distance: dist, P1: pa, P2: pa.Sub(n2.Mul(dist)), Normal: n2.Mul(-1), Guess: n2}
}

func halfspaceHalfspace(h1 *geometry.Halfspace, tf1 spatialmath.Pose, h2 *geometry.Halfspace, tf2 spatialmath.Pose) DistanceResult {
	n1, d1 := worldPlane(h1.N, h1.D, tf1)
	n2, d2 := worldPlane(h2.N, h2.D, tf2)
	pa := pointOnPlane(n1, d1)
	if n1.Add(n2).Norm2() > 1e-18 {
		// Not anti-parallel: the intersection is unbounded.
		return DistanceResult{Distance: -unboundedDepth, P1: pa, P2: pa, Normal: n1, Guess: n1}
	}
	// Anti-parallel slabs: h1 is n1.x <= d1, h2 is n1.x >= -d2.
	dist := -d2 - d1
	return DistanceResult{Distance: dist, P1: pa, P2: pa.Add(n1.Mul(dist)), Normal: n1, Guess: n1.Mul(-1)}
}
